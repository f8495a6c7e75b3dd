package models

import "time"

// Identity providers.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Identity is a credential record held by the local identity provider.
// Its ID is the opaque identifier the rest of the system keys members by.
type Identity struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"display_name" json:"display_name"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Provider     string    `bson:"provider" json:"provider"`
	Subject      string    `bson:"subject,omitempty" json:"-"` // external subject for federated sign-in
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
