package httpapi

import (
	"errors"
	"net/http"

	"github.com/tanc-norcal/membership-api/internal/ports/out/identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
	IsAdmin bool   `json:"isAdmin"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email and password are required", nil)
		return
	}

	subject, err := s.Identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	isAdmin, err := s.Admins.IsAdmin(r.Context(), subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := s.Tokens.Issue(subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:   token,
		Subject: string(subject),
		IsAdmin: isAdmin,
	})
}
