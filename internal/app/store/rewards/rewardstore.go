// internal/app/store/rewards/rewardstore.go
package rewardstore

import (
	"context"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections: the reward catalog and the redemption ledger.
const (
	TypesCollection       = "reward_types"
	RedemptionsCollection = "rewards"
)

// Store covers the catalog and redemption records. Point balances live on
// the member document and are changed through memberstore.
type Store struct {
	types       *mongo.Collection
	redemptions *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		types:       db.Collection(TypesCollection),
		redemptions: db.Collection(RedemptionsCollection),
	}
}

/* ------------------------------- catalog -------------------------------- */

// CreateType adds a catalog entry.
func (s *Store) CreateType(ctx context.Context, rt models.RewardType) (models.RewardType, error) {
	rt.ID = primitive.NewObjectID()
	rt.Name = normalize.Name(rt.Name)
	if _, err := s.types.InsertOne(ctx, rt); err != nil {
		return models.RewardType{}, err
	}
	return rt, nil
}

// GetType loads a catalog entry. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetType(ctx context.Context, id primitive.ObjectID) (*models.RewardType, error) {
	var rt models.RewardType
	if err := s.types.FindOne(ctx, bson.M{"_id": id}).Decode(&rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

// ListTypes returns the catalog ordered by cost, then name.
func (s *Store) ListTypes(ctx context.Context, activeOnly bool) ([]models.RewardType, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := s.types.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "points", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RewardType
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ----------------------------- redemptions ------------------------------ */

// InsertRedemption writes a redemption record. Zero ID and time are filled.
func (s *Store) InsertRedemption(ctx context.Context, r models.Redemption) (models.Redemption, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.RedeemedAt.IsZero() {
		r.RedeemedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = models.RedemptionPending
	}
	if _, err := s.redemptions.InsertOne(ctx, r); err != nil {
		return models.Redemption{}, err
	}
	return r, nil
}

// ListRedemptions returns userID's redemptions, newest first.
func (s *Store) ListRedemptions(ctx context.Context, userID string, limit int64) ([]models.Redemption, error) {
	opts := options.Find().SetSort(bson.D{{Key: "redeemed_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.redemptions.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Redemption
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TotalRedeemed sums the points of userID's redemptions that were not rejected.
func (s *Store) TotalRedeemed(ctx context.Context, userID string) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id": userID,
			"status":  bson.M{"$ne": models.RedemptionRejected},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$points"},
		}}},
	}
	cur, err := s.redemptions.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
