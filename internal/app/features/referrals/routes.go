// internal/app/features/referrals/routes.go
package referrals

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	staff := sm.RequireRole(models.RoleAdmin, models.RoleEmployee)
	r.With(staff).Get("/", h.ServeCreated)
	r.With(staff).Post("/", h.HandleGenerate)
	r.With(staff).Get("/projects", h.ServeProjects)
	r.With(sm.RequireRole(models.RoleMember)).Get("/mine", h.ServeMine)
	r.Get("/{code}/stats", h.ServeStats)
	r.Get("/{code}/signups", h.ServeSignups)
	return r
}
