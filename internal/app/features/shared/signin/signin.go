// Package signin finishes a successful identity check: it loads or creates
// the member document and writes the session. Both the password and the
// Google flows end here.
package signin

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.uber.org/zap"
)

// ErrDisabled is returned when the member document is marked inactive.
var ErrDisabled = errors.New("account disabled")

type Finisher struct {
	Members  *memberstore.Store
	Sessions *auth.SessionManager
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// Finish signs in ident. On first sign-in a member document is created
// with member defaults.
func (f *Finisher) Finish(w http.ResponseWriter, r *http.Request, ident models.Identity, provider string) (*models.Member, error) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, created, err := f.Members.EnsureMember(ctx, ident.ID, ident.DisplayName, ident.Email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(provider, metrics.OutcomeError).Inc()
		return nil, err
	}
	if created {
		f.Audit.MemberSelfRegistered(ctx, r, m.ID, provider)
		f.Log.Info("member created on first sign-in",
			zap.String("user_id", m.ID),
			zap.String("provider", provider))
	}
	if !m.IsActive {
		metrics.LoginAttempts.WithLabelValues(provider, metrics.OutcomeInvalid).Inc()
		f.Audit.LoginFailed(ctx, r, audit.EventLoginFailedUserDisabled, m.ID, m.Email, "account disabled")
		return nil, ErrDisabled
	}

	name := m.Name
	if name == "" {
		name = m.Email
	}
	if err := f.Sessions.SignIn(w, r, auth.SessionUser{
		ID:    m.ID,
		Name:  name,
		Email: m.Email,
		Role:  m.Role,
	}); err != nil {
		metrics.LoginAttempts.WithLabelValues(provider, metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues(provider, metrics.OutcomeSuccess).Inc()
	f.Audit.LoginSuccess(ctx, r, m.ID, provider, m.Email)
	return m, nil
}
