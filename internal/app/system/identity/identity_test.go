package identity_test

import (
	"testing"

	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/indexes"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func TestMongoProvider_CreateAndAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := identity.NewMongoProvider(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := p.Create(ctx, " Sara@Example.com ", "Sara", "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.Email != "sara@example.com" {
		t.Errorf("unexpected identity: %+v", created)
	}
	if created.PasswordHash == "s3cret-pass" {
		t.Error("password stored in clear")
	}

	got, err := p.Authenticate(ctx, "SARA@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("authenticated id %q, want %q", got.ID, created.ID)
	}

	if _, err := p.Authenticate(ctx, "sara@example.com", "wrong"); err != identity.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.Authenticate(ctx, "nobody@example.com", "x"); err != identity.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMongoProvider_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := identity.NewMongoProvider(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if _, err := p.Create(ctx, "a@example.com", "A", "password1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := p.Create(ctx, "A@example.com", "A2", "password2"); err != identity.ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestMongoProvider_FindOrCreateFederated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := identity.NewMongoProvider(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, created, err := p.FindOrCreateFederated(ctx, models.ProviderGoogle, "sub-1", "g@example.com", "G User")
	if err != nil {
		t.Fatalf("FindOrCreateFederated failed: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}

	again, created, err := p.FindOrCreateFederated(ctx, models.ProviderGoogle, "sub-1", "changed@example.com", "X")
	if err != nil {
		t.Fatalf("FindOrCreateFederated (again) failed: %v", err)
	}
	if created || again.ID != first.ID {
		t.Errorf("expected existing identity %q, got %q (created=%v)", first.ID, again.ID, created)
	}
	if again.Email != "g@example.com" {
		t.Errorf("email overwritten: %q", again.Email)
	}
}

func TestMongoProvider_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := identity.NewMongoProvider(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id, err := p.Create(ctx, "d@example.com", "D", "password1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := p.Delete(ctx, id.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := p.Delete(ctx, id.ID); err != identity.ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := p.Get(ctx, id.ID); err != identity.ErrNotFound {
		t.Errorf("expected ErrNotFound from Get, got %v", err)
	}
}
