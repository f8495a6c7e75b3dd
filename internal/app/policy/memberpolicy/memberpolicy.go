// Package memberpolicy provides authorization policies for member management
// and referral statistics.
//
// Authorization rules:
//   - Admins and employees can view and manage member accounts
//   - Only admins can create staff accounts or delete accounts
//   - Nobody can disable or delete their own account
//   - Members can only read statistics for codes minted for themselves
package memberpolicy

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/authz"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

// ErrForbidden is returned when the caller's role does not allow the action.
// Handlers answer it with 403.
var ErrForbidden = errors.New("forbidden")

// CanCreate reports whether the current user may create an account with role.
//
// Authorization:
//   - Admin: any role
//   - Employee: members only
//   - Others: nothing
func CanCreate(r *http.Request, role string) error {
	if !authz.IsStaff(r) {
		return ErrForbidden
	}
	if role != models.RoleMember && !authz.IsAdmin(r) {
		return ErrForbidden
	}
	return nil
}

// CanChangeStatus reports whether the current user may enable or disable
// memberID. Returns a validation error when the target is the caller.
func CanChangeStatus(r *http.Request, memberID string) error {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok || !authz.IsStaff(r) {
		return ErrForbidden
	}
	if uid == memberID {
		return apperr.Validation("you cannot disable your own account")
	}
	return nil
}

// CanDelete reports whether the current user may delete memberID's account.
// Only admins delete, and never their own account.
func CanDelete(r *http.Request, memberID string) error {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok || !authz.IsAdmin(r) {
		return ErrForbidden
	}
	if uid == memberID {
		return apperr.Validation("you cannot delete your own account")
	}
	return nil
}

// CanViewReferralCode reports whether the current user may read the
// statistics and signups of code. Staff read any code; members read codes
// generated for their own id.
func CanViewReferralCode(r *http.Request, code string) bool {
	if authz.IsStaff(r) {
		return true
	}
	_, _, uid, ok := authz.UserCtx(r)
	return ok && uid != "" && strings.HasPrefix(code, referral.CodePrefix+uid+"-")
}
