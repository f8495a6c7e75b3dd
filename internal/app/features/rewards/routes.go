// internal/app/features/rewards/routes.go
package rewards

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeCatalog)
	r.With(sm.RequireRole(models.RoleAdmin, models.RoleEmployee)).Post("/", h.HandleCreate)

	member := sm.RequireRole(models.RoleMember)
	r.With(member).Post("/{id}/redeem", h.HandleRedeem)
	r.With(member).Get("/mine", h.ServeMine)
	return r
}
