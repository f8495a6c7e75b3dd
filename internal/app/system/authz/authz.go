// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

// UserCtx returns the user's role (lowercased), name, identity id and a
// found flag. With no user in context it returns "visitor", "", "", false.
// An empty identity id in the session is treated as signed out.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsStaff reports whether the current user is an admin or employee.
func IsStaff(r *http.Request) bool {
	return HasAnyRole(r, models.RoleAdmin, models.RoleEmployee)
}

// IsMember reports whether the current request's user is a member.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleMember
}

// CanViewMember reports whether the current user may read memberID's data.
// Staff see everyone; members see only themselves.
func CanViewMember(r *http.Request, memberID string) bool {
	role, _, uid, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == models.RoleAdmin || role == models.RoleEmployee {
		return true
	}
	return uid == memberID
}
