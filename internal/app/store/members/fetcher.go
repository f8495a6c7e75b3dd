package memberstore

import (
	"context"

	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/app/system/timeouts"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher over the users collection.
type Fetcher struct {
	s *Store
}

// NewFetcher returns a UserFetcher backed by s.
func NewFetcher(s *Store) *Fetcher {
	return &Fetcher{s: s}
}

// FetchUser returns nil when the account is missing, deactivated, or the
// lookup fails.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	if userID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var m models.Member
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"name":      1,
		"email":     1,
		"role":      1,
		"is_active": 1,
	})
	if err := f.s.c.FindOne(ctx, bson.M{"_id": userID}, proj).Decode(&m); err != nil {
		return nil
	}
	if !m.IsActive {
		return nil
	}
	return &auth.SessionUser{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
		Role:  normalize.Role(m.Role),
	}
}
