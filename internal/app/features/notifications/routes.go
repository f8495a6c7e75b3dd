// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/unread-count", h.ServeUnreadCount)
	r.Post("/{id}/read", h.HandleMarkRead)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleAdmin, models.RoleEmployee))
		r.Post("/", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Get("/{id}/readers", h.ServeReaders)
	})
	return r
}
