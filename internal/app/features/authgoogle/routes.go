// internal/app/features/authgoogle/routes.go
package authgoogle

import "github.com/go-chi/chi/v5"

// Routes returns the public Google sign-in routes, mounted at /auth/google.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/start", h.ServeStart)
	r.Get("/callback", h.ServeCallback)
	return r
}
