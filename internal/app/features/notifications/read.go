package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/readtracking"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// HandleMarkRead handles POST /notifications/{id}/read for the signed-in
// user. Repeating the call answers 200 with status already_read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	name := u.Name
	if name == "" {
		name = u.Email
	}
	out, err := h.Reads.MarkAsRead(ctx, chi.URLParam(r, "id"), readtracking.Reader{MemberID: u.ID, Name: name})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]string{"status": out.String()})
}

// ServeReaders handles GET /notifications/{id}/readers.
func (h *Handler) ServeReaders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	readers, err := h.Reads.FetchReaders(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if readers == nil {
		readers = []models.ReaderEntry{}
	}
	respond.OK(w, map[string]any{"readers": readers})
}
