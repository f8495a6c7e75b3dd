// internal/app/features/me/routes.go
package me

import "github.com/go-chi/chi/v5"

// Routes serves the signed-in account's own profile at /me.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeMe)
	r.Patch("/", h.HandleUpdate)
	return r
}
