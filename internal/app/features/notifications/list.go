package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/readtracking"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
)

// ServeList handles GET /notifications. Every entry carries the caller's
// read state; staff also see the reader lists.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Store.List(ctx, listLimit)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list notifications", err))
		return
	}
	out := readtracking.Annotate(userID, list)
	if !authz.IsStaff(r) {
		for i := range out {
			out[i].Readers = nil
		}
	}
	respond.OK(w, map[string]any{"notifications": out})
}

// ServeUnreadCount handles GET /notifications/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	unread, err := h.Reads.UnreadCount(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, map[string]int64{"unread": unread})
}
