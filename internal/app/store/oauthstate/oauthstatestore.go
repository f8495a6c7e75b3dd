// Package oauthstate persists the one-time state tokens issued when a
// Google sign-in starts. Tokens expire through the idx_oauth_ttl index;
// Consume deletes a token as it reads it so a callback can be replayed at
// most once.
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const collection = "oauth_states"

type pending struct {
	Token     string    `bson:"state"`
	Next      string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(collection), now: func() time.Time { return time.Now().UTC() }}
}

// Issue records token as valid for ttl. next is the path to land on after
// the callback completes and may be empty.
func (s *Store) Issue(ctx context.Context, token, next string, ttl time.Duration) error {
	if token == "" {
		return errors.New("oauthstate: empty token")
	}
	now := s.now()
	_, err := s.c.InsertOne(ctx, pending{
		Token:     token,
		Next:      next,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	return err
}

// Consume reports whether token was issued and has not expired, removing
// it either way it matched.
func (s *Store) Consume(ctx context.Context, token string) (next string, ok bool, err error) {
	var p pending
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      token,
		"expires_at": bson.M{"$gt": s.now()},
	}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.Next, true, nil
}

// Purge drops expired tokens without waiting for the TTL monitor.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
