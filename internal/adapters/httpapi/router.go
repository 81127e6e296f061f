package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterOptions carries the middleware the router composes around the
// handlers. Auth and Admin are required; the router does not default them so
// that a misconfigured binary fails loudly at startup rather than serving
// unprotected routes.
type RouterOptions struct {
	Auth  func(http.Handler) http.Handler
	Admin func(http.Handler) http.Handler

	AllowedOrigins []string

	Logger zerolog.Logger
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates to the Server's handlers, which in turn delegate to the app
// services.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health endpoint is deliberately unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Public: login, plus first-time applications (applicants have no
	// account until submission creates one).
	r.Post("/auth/login", s.handleLogin)
	r.Post("/applications", s.handleSubmitApplication)

	// Authenticated.
	r.Group(func(r chi.Router) {
		r.Use(opts.Auth)

		r.Post("/renewals", s.handleSubmitRenewal)
		r.Post("/media", s.handleUploadMedia)

		r.Get("/me", s.handleGetMe)
		r.Patch("/me", s.handlePatchMe)
		r.Get("/me/card", s.handleGetCard)

		// Admin-gated review and directory management.
		r.Group(func(r chi.Router) {
			r.Use(opts.Admin)

			r.Get("/applications", s.handleListApplications)
			r.Get("/applications/{applicationID}", s.handleGetApplication)
			r.Post("/applications/{applicationID}/approve", s.handleApproveApplication)
			r.Post("/applications/{applicationID}/reject", s.handleRejectApplication)
			r.Delete("/applications/{applicationID}", s.handleDeleteApplication)

			r.Get("/members", s.handleDirectory)
			r.Get("/members/{memberID}", s.handleGetMember)
			r.Delete("/members/{memberID}", s.handleRemoveMember)
		})
	})

	return r
}
