package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/profile"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

const detailActivityLimit = 20

// detailResponse bundles everything the member detail pane shows.
type detailResponse struct {
	Member         *models.Member        `json:"member"`
	ReferralLinks  []models.ReferralLink `json:"referral_links"`
	Referrals      []referral.Referral   `json:"referrals"`
	Activities     []models.Activity     `json:"activities"`
	Redemptions    []models.Redemption   `json:"redemptions"`
	RedeemedPoints int64                 `json:"redeemed_points"`
}

func (h *Handler) load(ctx context.Context, id string) (*models.Member, error) {
	m, err := h.Members.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("member", id)
	}
	if err != nil {
		return nil, apperr.Store("load member", err)
	}
	return m, nil
}

// ServeDetail handles GET /members/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	m, err := h.load(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	resp := detailResponse{
		Member:        m,
		ReferralLinks: []models.ReferralLink{},
		Referrals:     []referral.Referral{},
		Activities:    []models.Activity{},
		Redemptions:   []models.Redemption{},
	}
	if !m.IsMember() {
		respond.OK(w, resp)
		return
	}

	links, err := h.Referrals.LinksForMember(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if links != nil {
		resp.ReferralLinks = links
	}
	for _, l := range links {
		refs, err := h.Referrals.Referrals(ctx, l.ReferralCode)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		resp.Referrals = append(resp.Referrals, refs...)
	}

	acts, err := h.Activities.ListForParticipant(ctx, id, detailActivityLimit)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list activities", err))
		return
	}
	if acts != nil {
		resp.Activities = acts
	}
	reds, err := h.Rewards.ListRedemptions(ctx, id, 0)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("list redemptions", err))
		return
	}
	if reds != nil {
		resp.Redemptions = reds
	}
	if resp.RedeemedPoints, err = h.Rewards.TotalRedeemed(ctx, id); err != nil {
		respond.Error(w, r, h.Log, apperr.Store("total redeemed", err))
		return
	}
	respond.OK(w, resp)
}

// HandleUpdate handles PATCH /members/{id}. Staff may change the tier.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in profile.Input
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	existing, err := h.load(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := profile.Validate(existing, in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	if err := h.Members.UpdateProfile(ctx, id, profile.Update(in, true)); err != nil {
		respond.Error(w, r, h.Log, apperr.Store("update member", err))
		return
	}
	updated, err := h.load(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventMemberUpdated, actorID, id, nil)
	respond.OK(w, updated)
}

// HandleToggle handles POST /members/{id}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := memberpolicy.CanChangeStatus(r, id); err != nil {
		h.deny(w, r, err, "You cannot change this account's status.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	active, err := h.Members.ToggleActive(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("member", id))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("toggle member", err))
		return
	}
	h.AuditLog.MemberActiveChanged(ctx, r, actorID, id, active)
	respond.OK(w, map[string]any{"id": id, "is_active": active})
}

// HandleDelete handles DELETE /members/{id} (admin only).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := memberpolicy.CanDelete(r, id); err != nil {
		h.deny(w, r, err, "Only admins can delete accounts.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Deleter.Delete(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventMemberDeleted, actorID, id, nil)
	respond.OK(w, res)
}
