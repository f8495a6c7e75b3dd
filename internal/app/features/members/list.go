package members

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type listResponse struct {
	Members []models.Member `json:"members"`
}

// ServeList handles GET /members?role=&q=&active=&limit=.
// role defaults to member; role=all lists every account.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := q.Get("role")
	switch role {
	case "":
		role = models.RoleMember
	case "all":
		role = ""
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Members.List(ctx, memberstore.ListFilter{
		Role:       role,
		NamePrefix: q.Get("q"),
		ActiveOnly: q.Get("active") == "true",
		Limit:      limit,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list members", err))
		return
	}
	if list == nil {
		list = []models.Member{}
	}
	respond.OK(w, listResponse{Members: list})
}

func parseLimit(s string) (int64, error) {
	if s == "" {
		return defaultLimit, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
