package members

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Name     string `json:"name" validate:"required,max=120" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required,min=8,max=72" label:"Password"`
	Role     string `json:"role" validate:"required,oneof=admin employee member" label:"Role"`

	Points          int64      `json:"points" validate:"gte=0" label:"Points"`
	ReferredBy      string     `json:"referred_by" validate:"max=200" label:"Referred by"`
	ReferralCode    string     `json:"referral_code" validate:"max=200" label:"Referral code"`
	PhoneNumber     string     `json:"phone_number" validate:"omitempty,digits,max=20" label:"Phone number"`
	City            string     `json:"city" validate:"max=80" label:"City"`
	District        string     `json:"district" validate:"max=80" label:"District"`
	MembershipLevel string     `json:"membership_level" validate:"omitempty,tier" label:"Membership level"`
	BirthDate       *time.Time `json:"birth_date"`
}

// HandleCreate handles POST /members. It registers the identity first and
// then writes the member document under the identity's id. Only admins may
// create staff accounts. referred_by is stored exactly as sent.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Role = normalize.Role(in.Role)
	in.PhoneNumber = normalize.Phone(in.PhoneNumber)
	if in.MembershipLevel != "" {
		in.MembershipLevel = normalize.Tier(in.MembershipLevel)
	}
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	if err := memberpolicy.CanCreate(r, in.Role); err != nil {
		h.deny(w, r, err, "Only admins can create staff accounts.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Config.Snapshot(ctx)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load configuration", err))
		return
	}
	if !snap.HasRole(in.Role) {
		respond.Error(w, r, h.Log, apperr.Validation("role %q is not enabled", in.Role))
		return
	}

	ident, err := h.Identities.Create(ctx, in.Email, in.Name, in.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		respond.Error(w, r, h.Log, apperr.Conflict("email is already in use"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("create identity", err))
		return
	}

	m, err := h.Members.Create(ctx, models.Member{
		ID:              ident.ID,
		Name:            in.Name,
		Email:           in.Email,
		Role:            in.Role,
		IsActive:        true,
		Points:          in.Points,
		MembershipLevel: in.MembershipLevel,
		ReferredBy:      in.ReferredBy,
		ReferralCode:    in.ReferralCode,
		PhoneNumber:     in.PhoneNumber,
		City:            normalize.Name(in.City),
		District:        normalize.Name(in.District),
		BirthDate:       in.BirthDate,
	})
	if err != nil {
		// Roll back the identity so the email can be reused.
		if derr := h.Identities.Delete(ctx, ident.ID); derr != nil {
			h.Log.Error("members: orphaned identity after failed create",
				zap.String("identity_id", ident.ID), zap.Error(derr))
		}
		if errors.Is(err, memberstore.ErrDuplicateEmail) {
			respond.Error(w, r, h.Log, apperr.Conflict("email is already in use"))
			return
		}
		respond.Error(w, r, h.Log, apperr.Store("create member", err))
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Admin(ctx, r, audit.EventMemberCreated, actorID, m.ID, map[string]string{"role": m.Role})
	respond.JSON(w, http.StatusCreated, m)
}
