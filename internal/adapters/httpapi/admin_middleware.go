package httpapi

import (
	"net/http"

	"github.com/tanc-norcal/membership-api/internal/ports/out/adminrepo"
)

// NewAdminMiddleware gates a route subtree on the caller being an
// administrator. The admins store is consulted on every request; a client-side
// or token-carried admin flag is never trusted.
func NewAdminMiddleware(admins adminrepo.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := SubjectFromContext(r.Context())
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
				return
			}
			isAdmin, err := admins.IsAdmin(r.Context(), sub)
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
				return
			}
			if !isAdmin {
				writeError(w, r, http.StatusForbidden, "FORBIDDEN", "administrator access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
