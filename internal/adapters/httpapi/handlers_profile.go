package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tanc-norcal/membership-api/internal/app/members"
	"github.com/tanc-norcal/membership-api/internal/domain"
)

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return
	}

	profile, err := s.Members.GetProfile(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": toProfileDTO(profile)})
}

var patchProfileFields = map[string]struct{}{
	"firstName":   {},
	"middleName":  {},
	"lastName":    {},
	"email":       {},
	"homeAddress": {},
	"photo":       {},
	"password":    {},
}

// handlePatchMe decodes the body into raw fields first so that an absent
// field, an explicit null, and a value stay distinguishable.
func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return
	}

	var raw map[string]json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}
	for key := range raw {
		if _, known := patchProfileFields[key]; !known {
			writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "unknown field", map[string]any{"field": key})
			return
		}
	}

	dec := fieldDecoder{raw: raw}
	in := members.UpdateProfileInput{
		FirstName:   dec.str("firstName"),
		MiddleName:  dec.str("middleName"),
		LastName:    dec.str("lastName"),
		Email:       dec.str("email"),
		HomeAddress: dec.str("homeAddress"),
		Photo:       dec.imageRef("photo"),
		Password:    dec.str("password"),
	}
	if dec.err != nil {
		writeError(w, r, http.StatusBadRequest, "MALFORMED_BODY", "could not parse request body", nil)
		return
	}

	profile, err := s.Members.UpdateProfile(r.Context(), subject, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": toProfileDTO(profile)})
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required", nil)
		return
	}

	card, err := s.Members.GetCard(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"card": toCardDTO(card)})
}

// fieldDecoder turns raw PATCH fields into tri-state values, keeping the
// first decode error it hits.
type fieldDecoder struct {
	raw map[string]json.RawMessage
	err error
}

func (d *fieldDecoder) str(key string) members.Optional[string] {
	v, ok := d.raw[key]
	if !ok {
		return members.Unspecified[string]()
	}
	if string(v) == "null" {
		return members.Null[string]()
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		if d.err == nil {
			d.err = err
		}
		return members.Unspecified[string]()
	}
	return members.Some(s)
}

func (d *fieldDecoder) imageRef(key string) members.Optional[domain.ImageRef] {
	v, ok := d.raw[key]
	if !ok {
		return members.Unspecified[domain.ImageRef]()
	}
	if string(v) == "null" {
		return members.Null[domain.ImageRef]()
	}
	var ref imageRefDTO
	if err := json.Unmarshal(v, &ref); err != nil {
		if d.err == nil {
			d.err = err
		}
		return members.Unspecified[domain.ImageRef]()
	}
	return members.Some(domain.ImageRef{URL: ref.URL, PublicID: ref.PublicID})
}
