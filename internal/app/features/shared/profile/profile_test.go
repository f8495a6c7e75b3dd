package profile

import (
	"testing"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

func ptr(s string) *string { return &s }

func TestValidate_Member(t *testing.T) {
	existing := &models.Member{
		Name: "Ada", Role: models.RoleMember, PhoneNumber: "5551234",
		City: "Austin", District: "North", MembershipLevel: models.TierBronze,
	}

	tests := []struct {
		name    string
		in      Input
		wantErr string
	}{
		{"no changes", Input{}, ""},
		{"phone with separators", Input{PhoneNumber: ptr("555-12 34")}, ""},
		{"phone letters", Input{PhoneNumber: ptr("555-CALL")}, "Phone number must contain digits only."},
		{"blank city", Input{City: ptr("  ")}, "City is required."},
		{"blank name", Input{Name: ptr("")}, "Name is required."},
		{"bad tier", Input{MembershipLevel: ptr("diamond")}, "Membership level must be bronze, silver, gold or platinum."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(existing, tc.in)
			if got := res.First(); got != tc.wantErr {
				t.Errorf("First() = %q, want %q", got, tc.wantErr)
			}
		})
	}
}

func TestValidate_StaffIgnoresMemberFields(t *testing.T) {
	staff := &models.Member{Name: "Boss", Role: models.RoleAdmin}
	if res := Validate(staff, Input{City: ptr("")}); res.HasErrors() {
		t.Errorf("unexpected errors for staff: %s", res.All())
	}
	if res := Validate(staff, Input{Name: ptr(" ")}); !res.HasErrors() {
		t.Error("staff name is still required")
	}
}

func TestUpdate_TierOnlyWhenAllowed(t *testing.T) {
	in := Input{MembershipLevel: ptr("gold"), Name: ptr("Ada")}
	if Update(in, false).MembershipLevel != nil {
		t.Error("tier leaked into self-service update")
	}
	if u := Update(in, true); u.MembershipLevel == nil || *u.MembershipLevel != "gold" {
		t.Error("tier dropped from staff update")
	}
}
