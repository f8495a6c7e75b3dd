// Package profile validates profile edits coming from the self-service and
// staff member endpoints. Edits are partial: the merged result of the
// existing account and the provided fields is what gets validated.
package profile

import (
	"time"

	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
)

// Input is the JSON body of a profile edit. Omitted fields are unchanged.
type Input struct {
	Name            *string    `json:"name"`
	PhoneNumber     *string    `json:"phone_number"`
	City            *string    `json:"city"`
	District        *string    `json:"district"`
	MembershipLevel *string    `json:"membership_level"`
	BirthDate       *time.Time `json:"birth_date"`
}

type staffCheck struct {
	Name string `validate:"required,max=120" label:"Name"`
}

type memberCheck struct {
	Name            string `validate:"required,max=120" label:"Name"`
	PhoneNumber     string `validate:"required,digits,max=20" label:"Phone number"`
	City            string `validate:"required,max=80" label:"City"`
	District        string `validate:"required,max=80" label:"District"`
	MembershipLevel string `validate:"required,tier" label:"Membership level"`
}

func pick(p *string, fallback string, norm func(string) string) string {
	if p == nil {
		return fallback
	}
	return norm(*p)
}

// Validate checks the account as it would look after in is applied.
func Validate(existing *models.Member, in Input) *inputval.Result {
	name := pick(in.Name, existing.Name, normalize.Name)
	if !existing.IsMember() {
		return inputval.Validate(staffCheck{Name: name})
	}
	return inputval.Validate(memberCheck{
		Name:            name,
		PhoneNumber:     pick(in.PhoneNumber, existing.PhoneNumber, normalize.Phone),
		City:            pick(in.City, existing.City, normalize.Name),
		District:        pick(in.District, existing.District, normalize.Name),
		MembershipLevel: pick(in.MembershipLevel, existing.MembershipLevel, normalize.Tier),
	})
}

// Update converts in to a store update. Members editing themselves cannot
// change their tier, so allowTier is false on the self-service path.
func Update(in Input, allowTier bool) memberstore.ProfileUpdate {
	upd := memberstore.ProfileUpdate{
		Name:        in.Name,
		PhoneNumber: in.PhoneNumber,
		City:        in.City,
		District:    in.District,
		BirthDate:   in.BirthDate,
	}
	if allowTier {
		upd.MembershipLevel = in.MembershipLevel
	}
	return upd
}
