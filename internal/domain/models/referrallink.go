package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralLink is an immutable record of one link-generation event.
type ReferralLink struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`     // identity that generated the link
	MemberID     string             `bson:"member_id" json:"member_id"` // member the link belongs to
	ReferralCode string             `bson:"referral_code" json:"referral_code"`
	ReferralLink string             `bson:"referral_link" json:"referral_link"`
	ProjectID    string             `bson:"project_id" json:"project_id"`
	ProjectName  string             `bson:"project_name" json:"project_name"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
