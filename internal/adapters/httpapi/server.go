package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tanc-norcal/membership-api/internal/app/applications"
	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/domain"
	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
)

// TokenIssuer mints a session token for an authenticated subject.
type TokenIssuer interface {
	Issue(subject domain.SubjectID) (string, error)
}

// Server is the HTTP adapter. It owns request decoding and response shaping;
// all behavior lives in the app services it delegates to.
type Server struct {
	Applications *applications.Service
	Members      *members.Service
	Identity     identity.Provider
	Admins       adminrepo.Repository
	Media        mediastore.Store
	Tokens       TokenIssuer
}

func NewServer(apps *applications.Service, membersSvc *members.Service, ids identity.Provider, admins adminrepo.Repository, media mediastore.Store, tokens TokenIssuer) *Server {
	return &Server{
		Applications: apps,
		Members:      membersSvc,
		Identity:     ids,
		Admins:       admins,
		Media:        media,
		Tokens:       tokens,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// decodeJSON rejects absent and malformed bodies uniformly.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "missing request body", nil)
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "could not parse request body", nil)
		return false
	}
	return true
}
