package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Multiple calls accumulate on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures writes documents straight into the test database, bypassing the
// stores so store tests do not depend on each other.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("fixture insert into %s: %v", coll, err)
	}
}

// CreateMember inserts an active bronze member with the given points.
func (f *Fixtures) CreateMember(ctx context.Context, name, email string, points int64) models.Member {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.Member{
		ID:              uuid.NewString(),
		Name:            name,
		NameCI:          text.Fold(name),
		Email:           email,
		Role:            models.RoleMember,
		IsActive:        true,
		Points:          points,
		MembershipLevel: models.TierBronze,
		JoinDate:        &now,
		CreatedAt:       now,
	}
	f.insert(ctx, "users", m)
	return m
}

// CreateReferredMember inserts a member whose referred_by carries code.
func (f *Fixtures) CreateReferredMember(ctx context.Context, name, email, code string) models.Member {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.Member{
		ID:              uuid.NewString(),
		Name:            name,
		NameCI:          text.Fold(name),
		Email:           email,
		Role:            models.RoleMember,
		IsActive:        true,
		MembershipLevel: models.TierBronze,
		ReferredBy:      code,
		JoinDate:        &now,
		CreatedAt:       now,
	}
	f.insert(ctx, "users", m)
	return m
}

// CreateStaff inserts an admin or employee account.
func (f *Fixtures) CreateStaff(ctx context.Context, name, email, role string) models.Member {
	f.t.Helper()
	m := models.Member{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "users", m)
	return m
}

// CreateNotification inserts a general notification with no readers.
func (f *Fixtures) CreateNotification(ctx context.Context, title, createdBy string) models.Notification {
	f.t.Helper()
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   "<p>" + title + "</p>",
		Type:      models.NotificationGeneral,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Readers:   []models.ReaderEntry{},
	}
	f.insert(ctx, "notifications", n)
	return n
}

// CreateActivity inserts an active activity worth points.
func (f *Fixtures) CreateActivity(ctx context.Context, name string, points int64) models.Activity {
	f.t.Helper()
	a := models.Activity{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Points:    points,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "activities", a)
	return a
}

// CreateRewardType inserts an active catalog entry costing points.
func (f *Fixtures) CreateRewardType(ctx context.Context, name string, points int64) models.RewardType {
	f.t.Helper()
	rt := models.RewardType{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Points:   points,
		IsActive: true,
	}
	f.insert(ctx, "reward_types", rt)
	return rt
}

// SetProjects replaces the projects configuration document.
func (f *Fixtures) SetProjects(ctx context.Context, projects ...models.Project) {
	f.t.Helper()
	_, err := f.db.Collection("app_config").UpdateOne(ctx,
		bson.M{"_id": "projects"},
		bson.M{"$set": bson.M{"items": projects}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		f.t.Fatalf("fixture projects: %v", err)
	}
}
