// internal/app/store/activities/activitystore.go
package activitystore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds program activities.
const Collection = "activities"

// ErrDuplicateName is returned when another activity already has the name
// (compared case-insensitively).
var ErrDuplicateName = errors.New("an activity with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new active activity.
func (s *Store) Create(ctx context.Context, a models.Activity) (models.Activity, error) {
	a.ID = primitive.NewObjectID()
	a.Name = normalize.Name(a.Name)
	a.NameCI = text.Fold(a.Name)
	a.IsActive = true
	a.CreatedAt = time.Now().UTC()
	if a.Participants == nil {
		a.Participants = []string{}
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Activity{}, ErrDuplicateName
		}
		return models.Activity{}, err
	}
	return a, nil
}

// GetByID loads an activity. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Activity, error) {
	var a models.Activity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Names returns every activity name (id + name only), for duplicate and
// similarity checks.
func (s *Store) Names(ctx context.Context) ([]models.Activity, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"name": 1, "name_ci": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFilter narrows List.
type ListFilter struct {
	NamePrefix string
	Limit      int64
}

// List returns activities newest first, or ordered by name when a name
// prefix is given.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Activity, error) {
	filter := bson.M{}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if p := normalize.QueryParam(f.NamePrefix); p != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(p))}
		opts.SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return s.find(ctx, filter, opts)
}

// ListForParticipant returns the newest activities memberID takes part in.
func (s *Store) ListForParticipant(ctx context.Context, memberID string, limit int64) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, bson.M{"participants": memberID}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the editable activity fields.
type Update struct {
	Name              string
	Description       string
	Points            int64
	ParticipantsCount int64
	ProjectName       string
	IsActive          bool
}

// Update rewrites the editable fields. Returns mongo.ErrNoDocuments when
// id is unknown and ErrDuplicateName when the new name is taken.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	name := normalize.Name(upd.Name)
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":               name,
		"name_ci":            text.Fold(name),
		"description":        upd.Description,
		"points":             upd.Points,
		"participants_count": upd.ParticipantsCount,
		"project_name":       upd.ProjectName,
		"is_active":          upd.IsActive,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddParticipant records memberID on the activity once and bumps the
// participant count. added is false when the member was already listed or
// the activity does not exist.
func (s *Store) AddParticipant(ctx context.Context, id primitive.ObjectID, memberID string) (added bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "participants": bson.M{"$ne": memberID}},
		bson.M{
			"$push": bson.M{"participants": memberID},
			"$inc":  bson.M{"participants_count": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RemoveParticipant undoes AddParticipant. removed is false when memberID
// was not listed.
func (s *Store) RemoveParticipant(ctx context.Context, id primitive.ObjectID, memberID string) (removed bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "participants": memberID},
		bson.M{
			"$pull": bson.M{"participants": memberID},
			"$inc":  bson.M{"participants_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes an activity. Returns mongo.ErrNoDocuments when id is unknown.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
