package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/validators"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "referral_links", "notifications", "activities", "reward_types", "rewards", "identities", "app_config", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q", want)
		}
	}
}

func TestNotificationsSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("notifications")

	valid := bson.M{
		"title":      "Double points",
		"content":    "<p>Weekend</p>",
		"type":       "general",
		"read_count": int64(0),
		"readers":    bson.A{},
		"created_at": time.Now(),
	}
	if _, err := coll.InsertOne(ctx, valid); err != nil {
		t.Fatalf("valid insert rejected: %v", err)
	}

	invalid := bson.M{
		"title":      "Bad",
		"type":       "spam",
		"read_count": int64(0),
		"readers":    bson.A{},
		"created_at": time.Now(),
	}
	if _, err := coll.InsertOne(ctx, invalid); err == nil {
		t.Error("expected insert with unknown type to be rejected")
	}
}

func TestUsersSchema_RejectsNegativePoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"_id":       "m1",
		"name":      "Sara",
		"email":     "sara@example.com",
		"role":      "member",
		"is_active": true,
		"points":    int64(-5),
	})
	if err == nil {
		t.Error("expected negative points to be rejected")
	}
}
