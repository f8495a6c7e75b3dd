// internal/app/features/rewards/handler.go
package rewards

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/redemption"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Rewards    *rewardstore.Store
	Redemption *redemption.Service
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(rewards *rewardstore.Store, svc *redemption.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Rewards: rewards, Redemption: svc, AuditLog: audit, Log: logger}
}

// ServeCatalog handles GET /rewards. Members see active entries only;
// staff may pass ?all=true.
func (h *Handler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	activeOnly := !(authz.IsStaff(r) && r.URL.Query().Get("all") == "true")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Rewards.ListTypes(ctx, activeOnly)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list rewards", err))
		return
	}
	if list == nil {
		list = []models.RewardType{}
	}
	respond.OK(w, map[string]any{"rewards": list})
}

type rewardInput struct {
	Name        string `json:"name" validate:"required,max=120" label:"Name"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	Points      int64  `json:"points" validate:"gte=1" label:"Points"`
}

// HandleCreate handles POST /rewards (staff).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in rewardInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Name = normalize.Name(in.Name)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rt, err := h.Rewards.CreateType(ctx, models.RewardType{
		Name:        in.Name,
		Description: in.Description,
		Points:      in.Points,
		IsActive:    true,
	})
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("create reward", err))
		return
	}
	respond.JSON(w, http.StatusCreated, rt)
}

// HandleRedeem handles POST /rewards/{id}/redeem for the signed-in member.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	_, _, memberID, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	red, err := h.Redemption.Redeem(ctx, memberID, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.RewardRedeemed(ctx, r, memberID, red.RewardName, red.ID.Hex())
	respond.JSON(w, http.StatusCreated, red)
}

// ServeMine handles GET /rewards/mine?limit=.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, memberID, _ := authz.UserCtx(r)
	var limit int64
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			respond.Error(w, r, h.Log, apperr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Rewards.ListRedemptions(ctx, memberID, limit)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list redemptions", err))
		return
	}
	total, err := h.Rewards.TotalRedeemed(ctx, memberID)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("total redeemed", err))
		return
	}
	if list == nil {
		list = []models.Redemption{}
	}
	respond.OK(w, map[string]any{"redemptions": list, "redeemed_points": total})
}
