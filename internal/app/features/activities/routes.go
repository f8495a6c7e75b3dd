// internal/app/features/activities/routes.go
package activities

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleEmployee))

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/participants", h.HandleAddParticipant)
	return r
}
