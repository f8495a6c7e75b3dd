// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleMember))
	r.Get("/", h.ServeDashboard)
	return r
}
