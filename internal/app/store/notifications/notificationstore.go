// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds staff notifications and their reader lists.
const Collection = "notifications"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts n with an empty reader list and a zero read count.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.ReadCount = 0
	n.Readers = []models.ReaderEntry{}
	n.CreatedAt = time.Now().UTC()
	n.UpdatedAt = nil
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// GetByID loads a notification. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Exists reports whether a notification with id is present.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns notifications newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread counts the notifications whose reader list does not include
// memberID.
func (s *Store) CountUnread(ctx context.Context, memberID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"readers.member_id": bson.M{"$ne": memberID}})
}

// Update holds the editable content fields. Readers are never touched.
type Update struct {
	Title   string
	Content string
	Type    models.NotificationType
}

// Update rewrites the content fields and stamps updated_at.
// Returns mongo.ErrNoDocuments when id is unknown.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":      upd.Title,
		"content":    upd.Content,
		"type":       upd.Type,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a notification. Returns mongo.ErrNoDocuments when id is unknown.
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

// AppendReaderIfAbsent pushes entry onto the reader list and increments
// read_count in one conditional update. The filter excludes documents that
// already list entry.MemberID, so concurrent calls for the same member
// append at most once. appended is false when nothing matched, either
// because the member already read it or the notification does not exist.
func (s *Store) AppendReaderIfAbsent(ctx context.Context, id primitive.ObjectID, entry models.ReaderEntry) (appended bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":               id,
			"readers.member_id": bson.M{"$ne": entry.MemberID},
		},
		bson.M{
			"$push": bson.M{"readers": entry},
			"$inc":  bson.M{"read_count": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
