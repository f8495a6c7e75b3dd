package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationGeneral   NotificationType = "general"
	NotificationImportant NotificationType = "important"
	NotificationUrgent    NotificationType = "urgent"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationGeneral, NotificationImportant, NotificationUrgent:
		return true
	}
	return false
}

// ReaderEntry records one member acknowledging one notification. Entries are
// appended only; ReadAt never changes once written.
type ReaderEntry struct {
	MemberID string    `bson:"member_id" json:"member_id"`
	Name     string    `bson:"name" json:"name"`
	ReadAt   time.Time `bson:"read_at" json:"read_at"`
}

// Notification is a staff-authored message with append-only read tracking.
// ReadCount always equals len(Readers).
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Type      NotificationType   `bson:"type" json:"type"`
	CreatedBy string             `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	ReadCount int64              `bson:"read_count" json:"read_count"`
	Readers   []ReaderEntry      `bson:"readers" json:"readers"`
}
