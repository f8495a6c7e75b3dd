// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/readtracking"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	notificationstore "github.com/dalemusser/loyaltyhub/internal/app/store/notifications"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	recentActivities   = 5
	recentRedemptions  = 5
	latestNotification = 10
)

type Handler struct {
	Members       *memberstore.Store
	Activities    *activitystore.Store
	Rewards       *rewardstore.Store
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

func NewHandler(members *memberstore.Store, activities *activitystore.Store, rewards *rewardstore.Store, notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Members:       members,
		Activities:    activities,
		Rewards:       rewards,
		Notifications: notifications,
		Log:           logger,
	}
}

type response struct {
	Member            *models.Member           `json:"member"`
	Points            int64                    `json:"points"`
	MembershipLevel   string                   `json:"membership_level"`
	RedeemedPoints    int64                    `json:"redeemed_points"`
	RecentActivities  []models.Activity        `json:"recent_activities"`
	RecentRedemptions []models.Redemption      `json:"recent_redemptions"`
	Notifications     []readtracking.Annotated `json:"notifications"`
	UnreadCount       int64                    `json:"unread_count"`
}

// ServeDashboard handles GET /dashboard for the signed-in member.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	_, _, memberID, ok := authz.UserCtx(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.Members.GetByID(ctx, memberID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("member", memberID))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load member", err))
		return
	}

	acts, err := h.Activities.ListForParticipant(ctx, memberID, recentActivities)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list activities", err))
		return
	}
	reds, err := h.Rewards.ListRedemptions(ctx, memberID, recentRedemptions)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list redemptions", err))
		return
	}
	redeemed, err := h.Rewards.TotalRedeemed(ctx, memberID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("total redeemed", err))
		return
	}
	latest, err := h.Notifications.List(ctx, latestNotification)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list notifications", err))
		return
	}
	unread, err := h.Notifications.CountUnread(ctx, memberID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("count unread", err))
		return
	}

	annotated := readtracking.Annotate(memberID, latest)
	for i := range annotated {
		annotated[i].Readers = nil
	}
	if acts == nil {
		acts = []models.Activity{}
	}
	if reds == nil {
		reds = []models.Redemption{}
	}

	respond.OK(w, response{
		Member:            m,
		Points:            m.Points,
		MembershipLevel:   m.MembershipLevel,
		RedeemedPoints:    redeemed,
		RecentActivities:  acts,
		RecentRedemptions: reds,
		Notifications:     annotated,
		UnreadCount:       unread,
	})
}
