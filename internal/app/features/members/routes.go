// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the staff member routes. Typically:
// r.Mount("/members", members.Routes(h, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleEmployee))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeDetail)
	r.Patch("/{id}", h.HandleUpdate)
	r.Post("/{id}/toggle", h.HandleToggle)
	r.With(sm.RequireRole(models.RoleAdmin)).Delete("/{id}", h.HandleDelete)
	return r
}
