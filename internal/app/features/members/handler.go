// internal/app/features/members/handler.go
package members

import (
	"errors"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/accountdeletion"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/policy/memberpolicy"
	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	appconfigstore "github.com/dalemusser/loyaltyhub/internal/app/store/appconfig"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"go.uber.org/zap"
)

// Handler serves the staff member-management endpoints.
type Handler struct {
	Members    *memberstore.Store
	Identities identity.Provider
	Config     *appconfigstore.Store
	Referrals  *referral.Engine
	Activities *activitystore.Store
	Rewards    *rewardstore.Store
	Deleter    *accountdeletion.Service
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

// Deps groups the collaborators NewHandler needs.
type Deps struct {
	Members    *memberstore.Store
	Identities identity.Provider
	Config     *appconfigstore.Store
	Referrals  *referral.Engine
	Activities *activitystore.Store
	Rewards    *rewardstore.Store
	Deleter    *accountdeletion.Service
	AuditLog   *auditlog.Logger
}

func NewHandler(d Deps, logger *zap.Logger) *Handler {
	return &Handler{
		Members:    d.Members,
		Identities: d.Identities,
		Config:     d.Config,
		Referrals:  d.Referrals,
		Activities: d.Activities,
		Rewards:    d.Rewards,
		Deleter:    d.Deleter,
		AuditLog:   d.AuditLog,
		Log:        logger,
	}
}

// deny answers a policy refusal: 403 with msg for role denials, otherwise
// the error's own status.
func (h *Handler) deny(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, memberpolicy.ErrForbidden) {
		respond.Fail(w, http.StatusForbidden, "forbidden", msg)
		return
	}
	respond.Error(w, r, h.Log, err)
}
