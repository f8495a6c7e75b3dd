package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a program activity members can take part in to earn points.
type Activity struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	NameCI            string             `bson:"name_ci" json:"-"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Points            int64              `bson:"points" json:"points"`
	ParticipantsCount int64              `bson:"participants_count" json:"participants_count"`
	Participants      []string           `bson:"participants,omitempty" json:"participants,omitempty"`
	ProjectName       string             `bson:"project_name,omitempty" json:"project_name,omitempty"`
	MemberID          string             `bson:"member_id,omitempty" json:"member_id,omitempty"`
	IsActive          bool               `bson:"is_active" json:"is_active"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
