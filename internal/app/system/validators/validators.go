// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("referral_links", referralLinksSchema())
	ensure("notifications", notificationsSchema())
	ensure("activities", activitiesSchema())
	ensure("reward_types", rewardTypesSchema())
	ensure("rewards", redemptionsSchema())
	ensure("identities", identitiesSchema())

	// No validators; created so startup logs show the full set.
	ensure("app_config", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonEmpty = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	integer  = bson.A{"int", "long"}
)

func schema(required bson.A, props bson.M) bson.M {
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   required,
		"properties": props,
	}}
}

func usersSchema() bson.M {
	return schema(bson.A{"name", "email", "role", "is_active"}, bson.M{
		"name":             nonEmpty,
		"email":            nonEmpty,
		"role":             bson.M{"enum": bson.A{"admin", "employee", "member"}},
		"is_active":        bson.M{"bsonType": "bool"},
		"points":           bson.M{"bsonType": integer, "minimum": 0},
		"membership_level": bson.M{"enum": bson.A{"bronze", "silver", "gold", "platinum"}},
		"referred_by":      bson.M{"bsonType": "string"},
		"phone_number":     bson.M{"bsonType": "string", "pattern": "^[0-9]*$"},
	})
}

func referralLinksSchema() bson.M {
	return schema(bson.A{"user_id", "member_id", "referral_code", "referral_link", "project_id", "created_at"}, bson.M{
		"user_id":       nonEmpty,
		"member_id":     nonEmpty,
		"referral_code": bson.M{"bsonType": "string", "pattern": "^REF-"},
		"referral_link": nonEmpty,
		"project_id":    nonEmpty,
		"project_name":  bson.M{"bsonType": "string"},
		"created_at":    bson.M{"bsonType": "date"},
	})
}

func notificationsSchema() bson.M {
	return schema(bson.A{"title", "type", "read_count", "readers", "created_at"}, bson.M{
		"title":      nonEmpty,
		"content":    bson.M{"bsonType": "string"},
		"type":       bson.M{"enum": bson.A{"general", "important", "urgent"}},
		"read_count": bson.M{"bsonType": integer, "minimum": 0},
		"readers": bson.M{
			"bsonType": "array",
			"items": bson.M{
				"bsonType": "object",
				"required": bson.A{"member_id", "read_at"},
				"properties": bson.M{
					"member_id": nonEmpty,
					"name":      bson.M{"bsonType": "string"},
					"read_at":   bson.M{"bsonType": "date"},
				},
			},
		},
		"created_at": bson.M{"bsonType": "date"},
	})
}

func activitiesSchema() bson.M {
	return schema(bson.A{"name", "name_ci", "points", "created_at"}, bson.M{
		"name":               nonEmpty,
		"name_ci":            nonEmpty,
		"points":             bson.M{"bsonType": integer, "minimum": 0},
		"participants_count": bson.M{"bsonType": integer, "minimum": 0},
		"participants":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
		"is_active":          bson.M{"bsonType": "bool"},
	})
}

func rewardTypesSchema() bson.M {
	return schema(bson.A{"name", "points"}, bson.M{
		"name":      nonEmpty,
		"points":    bson.M{"bsonType": integer, "minimum": 1},
		"is_active": bson.M{"bsonType": "bool"},
	})
}

func redemptionsSchema() bson.M {
	return schema(bson.A{"user_id", "reward_id", "points", "status", "redeemed_at"}, bson.M{
		"user_id":     nonEmpty,
		"reward_id":   bson.M{"bsonType": "objectId"},
		"points":      bson.M{"bsonType": integer, "minimum": 0},
		"status":      bson.M{"enum": bson.A{"pending", "approved", "rejected"}},
		"redeemed_at": bson.M{"bsonType": "date"},
	})
}

func identitiesSchema() bson.M {
	return schema(bson.A{"email", "provider", "created_at"}, bson.M{
		"email":    nonEmpty,
		"provider": bson.M{"enum": bson.A{"password", "google"}},
	})
}
