// internal/app/store/members/memberstore.go
package memberstore

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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds members and staff accounts.
const Collection = "users"

var (
	// ErrDuplicateEmail is returned when another account already uses the email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"employee"|"member"`)
	errMissingID      = errors.New("member id is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads an account by identity id. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByEmail looks up an account by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new account. The member-only fields are cleared for
// staff roles; for members the tier defaults to bronze. ReferredBy is
// stored exactly as given.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	if m.ID == "" {
		return models.Member{}, errMissingID
	}
	m.Name = normalize.Name(m.Name)
	m.NameCI = text.Fold(m.Name)
	m.Email = normalize.Email(m.Email)
	m.Role = normalize.Role(m.Role)

	switch m.Role {
	case models.RoleMember:
		m.MembershipLevel = normalize.Tier(m.MembershipLevel)
		m.PhoneNumber = normalize.Phone(m.PhoneNumber)
		if m.Points < 0 {
			m.Points = 0
		}
	case models.RoleAdmin, models.RoleEmployee:
		m = stripMemberFields(m)
	default:
		return models.Member{}, errBadRole
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	if m.Role == models.RoleMember && m.JoinDate == nil {
		m.JoinDate = &now
	}

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

func stripMemberFields(m models.Member) models.Member {
	m.Points = 0
	m.MembershipLevel = ""
	m.ReferredBy = ""
	m.ReferralCode = ""
	m.PhoneNumber = ""
	m.City = ""
	m.District = ""
	m.BirthDate = nil
	m.JoinDate = nil
	return m
}

// EnsureMember returns the account for id, creating a member with default
// values (no points, bronze tier) when none exists yet. created reports
// whether a document was inserted.
func (s *Store) EnsureMember(ctx context.Context, id, name, email string) (*models.Member, bool, error) {
	if id == "" {
		return nil, false, errMissingID
	}
	name = normalize.Name(name)
	now := time.Now().UTC()

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": bson.M{
			"name":             name,
			"name_ci":          text.Fold(name),
			"email":            normalize.Email(email),
			"role":             models.RoleMember,
			"is_active":        true,
			"points":           int64(0),
			"membership_level": models.TierBronze,
			"join_date":        now,
			"created_at":       now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, false, ErrDuplicateEmail
		}
		return nil, false, err
	}
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return m, res.UpsertedCount > 0, nil
}

// ListFilter narrows List.
type ListFilter struct {
	Role       string // empty = all roles
	NamePrefix string // case-insensitive prefix on name
	ActiveOnly bool
	Limit      int64 // 0 = no limit
}

// List returns accounts ordered by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Member, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = normalize.Role(f.Role)
	}
	if p := normalize.QueryParam(f.NamePrefix); p != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(p))}
	}
	if f.ActiveOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProfileUpdate holds the editable profile fields. Nil pointers are left
// unchanged. Member-only fields are ignored for staff accounts.
type ProfileUpdate struct {
	Name            *string
	PhoneNumber     *string
	City            *string
	District        *string
	MembershipLevel *string
	BirthDate       *time.Time
}

// UpdateProfile applies upd to the account. Returns mongo.ErrNoDocuments
// when no account has the id.
func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if existing.IsMember() {
		if upd.PhoneNumber != nil {
			set["phone_number"] = normalize.Phone(*upd.PhoneNumber)
		}
		if upd.City != nil {
			set["city"] = normalize.Name(*upd.City)
		}
		if upd.District != nil {
			set["district"] = normalize.Name(*upd.District)
		}
		if upd.MembershipLevel != nil {
			set["membership_level"] = normalize.Tier(*upd.MembershipLevel)
		}
		if upd.BirthDate != nil {
			set["birth_date"] = upd.BirthDate.UTC()
		}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ToggleActive flips is_active and returns the new value.
func (s *Store) ToggleActive(ctx context.Context, id string) (bool, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_active", Value: bson.D{{Key: "$not", Value: bson.A{"$is_active"}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}
	var out struct {
		IsActive bool `bson:"is_active"`
	}
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"is_active": 1}),
	).Decode(&out)
	if err != nil {
		return false, err
	}
	return out.IsActive, nil
}

// PromoteToAdmin sets the account's role to admin, activates it and
// removes the member-only fields.
func (s *Store) PromoteToAdmin(ctx context.Context, id string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"role": models.RoleAdmin, "is_active": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{
			"points": "", "membership_level": "", "referred_by": "", "referral_code": "",
			"phone_number": "", "city": "", "district": "", "birth_date": "", "join_date": "",
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountReferredBy counts members whose referred_by equals code exactly.
func (s *Store) CountReferredBy(ctx context.Context, code string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"referred_by": code})
}

// ListReferredBy returns the members attributed to code, oldest first.
func (s *Store) ListReferredBy(ctx context.Context, code string) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, bson.M{"referred_by": code},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddPoints increments a member's balance by delta (which may be negative).
func (s *Store) AddPoints(ctx context.Context, id string, delta int64) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleMember},
		bson.M{"$inc": bson.M{"points": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DebitPoints subtracts cost only if the member holds at least cost points.
// ok is false when the balance was insufficient or the member is missing.
func (s *Store) DebitPoints(ctx context.Context, id string, cost int64) (ok bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleMember, "points": bson.M{"$gte": cost}},
		bson.M{"$inc": bson.M{"points": -cost}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete removes the account document. Returns the number deleted.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
