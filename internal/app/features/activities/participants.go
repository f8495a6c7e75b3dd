package activities

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type participantInput struct {
	MemberID string `json:"member_id"`
}

// HandleAddParticipant handles POST /activities/{id}/participants. The
// member is credited the activity's points the first time they are added.
func (h *Handler) HandleAddParticipant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in participantInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		respond.Error(w, r, h.Log, apperr.Validation("member_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Activities.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("activity", id.Hex()))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load activity", err))
		return
	}
	if !a.IsActive {
		respond.Error(w, r, h.Log, apperr.Validation("activity %q is not active", a.Name))
		return
	}
	m, err := h.Members.GetByID(ctx, memberID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("member", memberID))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load member", err))
		return
	}
	if !m.IsMember() {
		respond.Error(w, r, h.Log, apperr.Validation("%q does not hold the member role", memberID))
		return
	}

	added, err := h.Participation.Add(ctx, id, memberID, a.Points)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !added {
		respond.OK(w, map[string]any{"added": false, "points_awarded": 0})
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventActivityParticipantAdd, actorID, memberID, map[string]string{
		"activity_id": id.Hex(),
	})
	respond.OK(w, map[string]any{"added": true, "points_awarded": a.Points})
}
