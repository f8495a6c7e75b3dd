// internal/app/features/referrals/handler.go
package referrals

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	appconfigstore "github.com/dalemusser/loyaltyhub/internal/app/store/appconfig"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Engine   *referral.Engine
	Config   *appconfigstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(engine *referral.Engine, cfg *appconfigstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Config: cfg, AuditLog: audit, Log: logger}
}

type linksResponse struct {
	Links []models.ReferralLink `json:"links"`
}

func links(list []models.ReferralLink) linksResponse {
	if list == nil {
		list = []models.ReferralLink{}
	}
	return linksResponse{Links: list}
}

// ServeCreated handles GET /referrals: links generated by the current user.
func (h *Handler) ServeCreated(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Engine.LinksForCreator(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, links(list))
}

// ServeMine handles GET /referrals/mine: links that belong to the member.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Engine.LinksForMember(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, links(list))
}

type generateInput struct {
	MemberID  string `json:"member_id" validate:"required,max=200" label:"Member"`
	ProjectID string `json:"project_id" validate:"required,max=200" label:"Project"`
}

// HandleGenerate handles POST /referrals.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var in generateInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.MemberID = strings.TrimSpace(in.MemberID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Config.Snapshot(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load configuration", err))
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	link, err := h.Engine.GenerateLink(ctx, snap, actorID, in.MemberID, in.ProjectID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.ReferralLinkGenerated(ctx, r, actorID, link.MemberID, link.ReferralCode, link.ProjectID)
	respond.JSON(w, http.StatusCreated, link)
}

// ServeProjects handles GET /referrals/projects.
func (h *Handler) ServeProjects(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	snap, err := h.Config.Snapshot(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load configuration", err))
		return
	}
	projects := snap.Projects
	if projects == nil {
		projects = []models.Project{}
	}
	respond.OK(w, map[string]any{"projects": projects})
}

// ServeStats handles GET /referrals/{code}/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !memberpolicy.CanViewReferralCode(r, code) {
		respond.Fail(w, http.StatusForbidden, "forbidden", "You cannot view this referral code.")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	stats, err := h.Engine.ComputeStats(ctx, code)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, stats)
}

// ServeSignups handles GET /referrals/{code}/signups.
func (h *Handler) ServeSignups(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !memberpolicy.CanViewReferralCode(r, code) {
		respond.Fail(w, http.StatusForbidden, "forbidden", "You cannot view this referral code.")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	refs, err := h.Engine.Referrals(ctx, code)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if refs == nil {
		refs = []referral.Referral{}
	}
	respond.OK(w, map[string]any{"referrals": refs})
}
