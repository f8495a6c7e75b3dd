package activities

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ServeList handles GET /activities?q=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			respond.Error(w, r, h.Log, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = min(n, maxLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Activities.List(ctx, activitystore.ListFilter{
		NamePrefix: r.URL.Query().Get("q"),
		Limit:      limit,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list activities", err))
		return
	}
	if list == nil {
		list = []models.Activity{}
	}
	respond.OK(w, map[string]any{"activities": list})
}
