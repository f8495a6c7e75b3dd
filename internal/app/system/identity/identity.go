// Package identity is the credential side of an account. Members are keyed
// by the identity id this package hands out; the rest of the system never
// sees password material.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/normalize"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound is returned when no identity has the given id or email.
	ErrNotFound = errors.New("identity not found")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when creating an identity for a used email.
	ErrEmailTaken = errors.New("an identity with this email already exists")
)

// Provider is the identity service the application depends on.
type Provider interface {
	Create(ctx context.Context, email, displayName, password string) (models.Identity, error)
	Authenticate(ctx context.Context, email, password string) (models.Identity, error)
	FindOrCreateFederated(ctx context.Context, provider, subject, email, displayName string) (models.Identity, bool, error)
	Get(ctx context.Context, id string) (models.Identity, error)
	Delete(ctx context.Context, id string) error
}

// Collection holds identity records.
const Collection = "identities"

// MongoProvider stores identities in MongoDB with bcrypt password hashes.
type MongoProvider struct {
	c    *mongo.Collection
	cost int
}

// NewMongoProvider returns a provider over db's identities collection.
func NewMongoProvider(db *mongo.Database) *MongoProvider {
	return &MongoProvider{c: db.Collection(Collection), cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func (p *MongoProvider) WithCost(cost int) *MongoProvider {
	p.cost = cost
	return p
}

// Create registers a password identity and returns it with a fresh id.
func (p *MongoProvider) Create(ctx context.Context, email, displayName, password string) (models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return models.Identity{}, err
	}
	id := models.Identity{
		ID:           uuid.NewString(),
		Email:        normalize.Email(email),
		DisplayName:  normalize.Name(displayName),
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := p.c.InsertOne(ctx, id); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Identity{}, ErrEmailTaken
		}
		return models.Identity{}, err
	}
	return id, nil
}

// Authenticate checks a password sign-in.
func (p *MongoProvider) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	var id models.Identity
	err := p.c.FindOne(ctx, bson.M{
		"email":    normalize.Email(email),
		"provider": models.ProviderPassword,
	}).Decode(&id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Identity{}, ErrNotFound
	}
	if err != nil {
		return models.Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)) != nil {
		return models.Identity{}, ErrInvalidCredentials
	}
	return id, nil
}

// FindOrCreateFederated returns the identity for an external subject,
// creating it on first sign-in. created reports whether it was inserted.
func (p *MongoProvider) FindOrCreateFederated(ctx context.Context, provider, subject, email, displayName string) (models.Identity, bool, error) {
	filter := bson.M{"provider": provider, "subject": subject}
	res, err := p.c.UpdateOne(ctx, filter,
		bson.M{"$setOnInsert": bson.M{
			"_id":          uuid.NewString(),
			"email":        normalize.Email(email),
			"display_name": normalize.Name(displayName),
			"provider":     provider,
			"subject":      subject,
			"created_at":   time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Identity{}, false, ErrEmailTaken
		}
		return models.Identity{}, false, err
	}

	var out models.Identity
	if err := p.c.FindOne(ctx, filter).Decode(&out); err != nil {
		return models.Identity{}, false, err
	}
	return out, res.UpsertedCount > 0, nil
}

// Get loads an identity by id.
func (p *MongoProvider) Get(ctx context.Context, id string) (models.Identity, error) {
	var out models.Identity
	err := p.c.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Identity{}, ErrNotFound
	}
	return out, err
}

// Delete removes an identity. Returns ErrNotFound if nothing was deleted.
func (p *MongoProvider) Delete(ctx context.Context, id string) error {
	res, err := p.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
