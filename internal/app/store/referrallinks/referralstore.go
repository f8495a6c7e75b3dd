// internal/app/store/referrallinks/referralstore.go
package referralstore

import (
	"context"
	"errors"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds referral links. Records are immutable once written.
const Collection = "referral_links"

// ErrDuplicateCode is returned when the referral code is already taken.
var ErrDuplicateCode = errors.New("referral code already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Insert persists a new link. An empty ID is assigned.
func (s *Store) Insert(ctx context.Context, link models.ReferralLink) (models.ReferralLink, error) {
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, link); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ReferralLink{}, ErrDuplicateCode
		}
		return models.ReferralLink{}, err
	}
	return link, nil
}

// GetByCode loads the link carrying code. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByCode(ctx context.Context, code string) (*models.ReferralLink, error) {
	var l models.ReferralLink
	if err := s.c.FindOne(ctx, bson.M{"referral_code": code}).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByCreator returns the links created by userID, newest first.
func (s *Store) ListByCreator(ctx context.Context, userID string) ([]models.ReferralLink, error) {
	return s.list(ctx, bson.M{"user_id": userID})
}

// ListByMember returns the links owned by memberID, newest first.
func (s *Store) ListByMember(ctx context.Context, memberID string) ([]models.ReferralLink, error) {
	return s.list(ctx, bson.M{"member_id": memberID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.ReferralLink, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ReferralLink
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
