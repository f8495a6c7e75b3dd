// internal/app/features/me/handler.go
package me

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/profile"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Members *memberstore.Store
	Log     *zap.Logger
}

func NewHandler(members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Log: logger}
}

// ServeMe handles GET /me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized", "Sign in required.")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Members.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("member", uid))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load profile", err))
		return
	}
	respond.OK(w, m)
}

// HandleUpdate handles PATCH /me. Members cannot change their own tier.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized", "Sign in required.")
		return
	}
	var in profile.Input
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	existing, err := h.Members.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("member", uid))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("load profile", err))
		return
	}
	in.MembershipLevel = nil
	if res := profile.Validate(existing, in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}
	if err := h.Members.UpdateProfile(ctx, uid, profile.Update(in, false)); err != nil {
		respond.Error(w, r, h.Log, apperr.Store("update profile", err))
		return
	}
	updated, err := h.Members.GetByID(ctx, uid)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Store("reload profile", err))
		return
	}
	respond.OK(w, updated)
}
