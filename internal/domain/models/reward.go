package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardType is a catalog entry members can redeem points for.
type RewardType struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Points      int64              `bson:"points" json:"points"` // cost
	IsActive    bool               `bson:"is_active" json:"is_active"`
}

// Redemption statuses.
const (
	RedemptionPending  = "pending"
	RedemptionApproved = "approved"
	RedemptionRejected = "rejected"
)

// Redemption records a member spending points on a reward.
type Redemption struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	RewardID   primitive.ObjectID `bson:"reward_id" json:"reward_id"`
	RewardName string             `bson:"reward_name" json:"reward_name"`
	Points     int64              `bson:"points" json:"points"`
	Status     string             `bson:"status" json:"status"`
	RedeemedAt time.Time          `bson:"redeemed_at" json:"redeemed_at"`
}
