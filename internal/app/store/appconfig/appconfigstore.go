// internal/app/store/appconfig/appconfigstore.go
package appconfigstore

import (
	"context"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds the externally edited list documents, one per list,
// keyed by _id ("roles", "projects", "reward_types") with an items array.
const Collection = "app_config"

const (
	docRoles       = "roles"
	docProjects    = "projects"
	docRewardTypes = "reward_types"
)

// Store provides read access to configuration lists plus the setters the
// admin CLI seeds them with.
type Store struct {
	c *mongo.Collection
}

// New creates a new configuration store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

type listDoc struct {
	ID    string        `bson:"_id"`
	Items bson.RawValue `bson:"items"`
}

// Snapshot reads all lists at once. A missing roles document yields the
// default roles; missing projects or reward types yield empty lists.
func (s *Store) Snapshot(ctx context.Context) (models.ConfigSnapshot, error) {
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": bson.A{docRoles, docProjects, docRewardTypes}}})
	if err != nil {
		return models.ConfigSnapshot{}, err
	}
	defer cur.Close(ctx)

	var docs []listDoc
	if err := cur.All(ctx, &docs); err != nil {
		return models.ConfigSnapshot{}, err
	}

	snap := models.ConfigSnapshot{
		Roles:       append([]string(nil), models.DefaultRoles...),
		Projects:    []models.Project{},
		RewardTypes: []string{},
	}
	for _, d := range docs {
		if d.Items.Type != bson.TypeArray {
			continue
		}
		switch d.ID {
		case docRoles:
			var roles []string
			if err := d.Items.Unmarshal(&roles); err != nil {
				return models.ConfigSnapshot{}, err
			}
			snap.Roles = roles
		case docProjects:
			if err := d.Items.Unmarshal(&snap.Projects); err != nil {
				return models.ConfigSnapshot{}, err
			}
		case docRewardTypes:
			if err := d.Items.Unmarshal(&snap.RewardTypes); err != nil {
				return models.ConfigSnapshot{}, err
			}
		}
	}
	return snap, nil
}

// SaveRoles replaces the roles list.
func (s *Store) SaveRoles(ctx context.Context, roles []string) error {
	return s.save(ctx, docRoles, roles)
}

// SaveProjects replaces the projects list.
func (s *Store) SaveProjects(ctx context.Context, projects []models.Project) error {
	return s.save(ctx, docProjects, projects)
}

// SaveRewardTypes replaces the reward type labels.
func (s *Store) SaveRewardTypes(ctx context.Context, types []string) error {
	return s.save(ctx, docRewardTypes, types)
}

func (s *Store) save(ctx context.Context, id string, items any) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"items": items, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}
