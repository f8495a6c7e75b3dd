package models

import (
	"time"
)

// Roles recognised by the portal. The externally edited roles document may
// list more labels, but only these carry behaviour.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
	RoleMember   = "member"
)

// Membership tiers.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Member is a portal account: staff (admin, employee) and loyalty members
// share the users collection. The _id is the opaque identifier assigned by
// the identity provider.
//
// NOTE:
//   - The member-only block (points through join_date) is written only when
//     Role == "member".
//   - ReferredBy is stored verbatim at creation time and never rewritten.
type Member struct {
	ID       string `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	NameCI   string `bson:"name_ci" json:"-"` // folded for prefix search
	Email    string `bson:"email" json:"email"`
	Role     string `bson:"role" json:"role"`
	IsActive bool   `bson:"is_active" json:"is_active"`

	Points          int64      `bson:"points,omitempty" json:"points"`
	MembershipLevel string     `bson:"membership_level,omitempty" json:"membership_level,omitempty"`
	ReferredBy      string     `bson:"referred_by,omitempty" json:"referred_by,omitempty"`
	ReferralCode    string     `bson:"referral_code,omitempty" json:"referral_code,omitempty"`
	PhoneNumber     string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	City            string     `bson:"city,omitempty" json:"city,omitempty"`
	District        string     `bson:"district,omitempty" json:"district,omitempty"`
	BirthDate       *time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	JoinDate        *time.Time `bson:"join_date,omitempty" json:"join_date,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsMember reports whether the account holds the member role.
func (m *Member) IsMember() bool {
	return m.Role == RoleMember
}

// IsStaff reports whether the account can administer the program.
func (m *Member) IsStaff() bool {
	return m.Role == RoleAdmin || m.Role == RoleEmployee
}

// ValidTier reports whether tier is one of the known membership levels.
func ValidTier(tier string) bool {
	switch tier {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}
