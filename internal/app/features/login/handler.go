// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/signin"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Identities identity.Provider
	Finisher   *signin.Finisher
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(ids identity.Provider, fin *signin.Finisher, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Identities: ids, Finisher: fin, AuditLog: audit, Log: logger}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	User *models.Member `json:"user"`
}

// HandleLogin serves POST /login.
//
// Unknown email and wrong password return the same 401 body so the
// endpoint does not reveal which accounts exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Invalid(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ident, err := h.Identities.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues(models.ProviderPassword, metrics.OutcomeInvalid).Inc()
			ev := audit.EventLoginFailedWrongPassword
			if errors.Is(err, identity.ErrNotFound) {
				ev = audit.EventLoginFailedUserNotFound
			}
			h.AuditLog.LoginFailed(ctx, r, ev, "", in.Email, "invalid credentials")
			respond.Fail(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password.")
			return
		}
		metrics.LoginAttempts.WithLabelValues(models.ProviderPassword, metrics.OutcomeError).Inc()
		h.Log.Error("login: authenticate failed", zap.Error(err))
		respond.Fail(w, http.StatusServiceUnavailable, "store", "Sign-in is temporarily unavailable.")
		return
	}

	m, err := h.Finisher.Finish(w, r, ident, models.ProviderPassword)
	if errors.Is(err, signin.ErrDisabled) {
		respond.Fail(w, http.StatusForbidden, "forbidden", "This account has been disabled.")
		return
	}
	if err != nil {
		h.Log.Error("login: finish sign-in failed", zap.String("user_id", ident.ID), zap.Error(err))
		respond.Fail(w, http.StatusServiceUnavailable, "store", "Sign-in is temporarily unavailable.")
		return
	}
	respond.OK(w, loginResponse{User: m})
}
