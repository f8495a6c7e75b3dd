// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type collectionIndexes struct {
	name   string
	models []mongo.IndexModel
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

func asc(k string) bson.E  { return bson.E{Key: k, Value: 1} }
func desc(k string) bson.E { return bson.E{Key: k, Value: -1} }

// desired lists every index the service relies on, per collection.
func desired() []collectionIndexes {
	ttl := mongo.IndexModel{
		Keys:    bson.D{asc("expires_at")},
		Options: options.Index().SetName("idx_oauth_ttl").SetExpireAfterSeconds(0),
	}
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			idx("uniq_users_email", true, asc("email")),
			idx("idx_users_role_name", false, asc("role"), asc("name_ci"), asc("_id")),
			idx("idx_users_referred_by", false, asc("referred_by")),
		}},
		{"referral_links", []mongo.IndexModel{
			idx("uniq_referral_code", true, asc("referral_code")),
			idx("idx_referral_creator", false, asc("user_id"), desc("created_at")),
			idx("idx_referral_member", false, asc("member_id"), desc("created_at")),
		}},
		{"notifications", []mongo.IndexModel{
			idx("idx_notifications_created", false, desc("created_at")),
			idx("idx_notifications_reader", false, asc("readers.member_id")),
		}},
		{"activities", []mongo.IndexModel{
			idx("uniq_activities_name_ci", true, asc("name_ci")),
			idx("idx_activities_created", false, desc("created_at")),
			idx("idx_activities_participant", false, asc("participants"), desc("created_at")),
		}},
		{"reward_types", []mongo.IndexModel{
			idx("idx_reward_types_active", false, asc("is_active"), asc("points")),
		}},
		{"rewards", []mongo.IndexModel{
			idx("idx_rewards_user", false, asc("user_id"), desc("redeemed_at")),
		}},
		{"identities", []mongo.IndexModel{
			idx("uniq_identities_email", true, asc("email")),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_time", false, desc("timestamp")),
			idx("idx_audit_user", false, asc("user_id"), desc("timestamp")),
			idx("idx_audit_type", false, asc("category"), asc("event_type"), desc("timestamp")),
		}},
		{"oauth_states", []mongo.IndexModel{
			idx("idx_oauth_state", true, asc("state")),
			ttl,
		}},
	}
}

/*
EnsureAll is called at startup and by `loyaltyctl indexes ensure`. Each set
is reconciled idempotently; problems are aggregated so startup can fail
fast with everything visible.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, ci := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(ci.name), ci.models); err != nil {
			problems = append(problems, ci.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection may not exist yet.
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(ix.Key)] = ix
	}
	return out
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		var unique *bool
		if m.Options != nil {
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		ex, found := existing[sig]
		switch {
		case !found:
			if err := createIndex(ctx, coll, m, name, sig, unique); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			zap.L().Info("index created",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.String("took", time.Since(start).String()))

		case boolVal(unique) == boolVal(ex.Unique) && (name == "" || ex.Name == name):
			zap.L().Debug("reusing existing index",
				zap.String("collection", coll.Name()),
				zap.String("name", ex.Name),
				zap.String("keys", sig))

		default:
			// Name or uniqueness differs: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
			if err := createIndex(ctx, coll, m, name, sig, unique); err != nil {
				errs = append(errs, err.Error())
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", name),
				zap.String("keys", sig),
				zap.Bool("unique", boolVal(unique)),
				zap.String("took", time.Since(start).String()))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func createIndex(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, name, sig string, unique *bool) error {
	_, err := coll.Indexes().CreateOne(ctx, m)
	if err == nil {
		return nil
	}
	if isDuplicateKeyErr(err) && boolVal(unique) {
		return fmt.Errorf("%s(%s): cannot create unique index on {%s}; duplicates present", coll.Name(), name, sig)
	}
	return fmt.Errorf("%s(%s): %w", coll.Name(), name, err)
}
