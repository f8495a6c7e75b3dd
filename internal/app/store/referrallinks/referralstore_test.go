package referralstore_test

import (
	"testing"
	"time"

	referralstore "github.com/dalemusser/loyaltyhub/internal/app/store/referrallinks"
	"github.com/dalemusser/loyaltyhub/internal/app/system/indexes"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func link(code, creator, member string, at time.Time) models.ReferralLink {
	return models.ReferralLink{
		UserID:       creator,
		MemberID:     member,
		ReferralCode: code,
		ReferralLink: "https://x.test/go?ref=" + code + "&project=p1",
		ProjectID:    "p1",
		ProjectName:  "Spring",
		CreatedAt:    at,
	}
}

func TestStore_InsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := referralstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	in, err := store.Insert(ctx, link("REF-m1-1", "s1", "m1", time.Now().UTC()))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if in.ID.IsZero() {
		t.Error("expected ID assigned")
	}

	got, err := store.GetByCode(ctx, "REF-m1-1")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if got.ProjectName != "Spring" || got.MemberID != "m1" {
		t.Errorf("unexpected link: %+v", got)
	}

	if _, err := store.GetByCode(ctx, "REF-none"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Insert_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := referralstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := store.Insert(ctx, link("REF-m1-1", "s1", "m1", time.Now())); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := store.Insert(ctx, link("REF-m1-1", "s2", "m1", time.Now())); err != referralstore.ErrDuplicateCode {
		t.Errorf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestStore_ListByCreatorAndMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := referralstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, l := range []models.ReferralLink{
		link("REF-m1-1", "s1", "m1", base),
		link("REF-m2-2", "s1", "m2", base.Add(time.Minute)),
		link("REF-m1-3", "s2", "m1", base.Add(2*time.Minute)),
	} {
		if _, err := store.Insert(ctx, l); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	byCreator, err := store.ListByCreator(ctx, "s1")
	if err != nil {
		t.Fatalf("ListByCreator failed: %v", err)
	}
	if len(byCreator) != 2 || byCreator[0].ReferralCode != "REF-m2-2" {
		t.Errorf("unexpected creator list: %+v", byCreator)
	}

	byMember, err := store.ListByMember(ctx, "m1")
	if err != nil {
		t.Fatalf("ListByMember failed: %v", err)
	}
	if len(byMember) != 2 || byMember[0].ReferralCode != "REF-m1-3" {
		t.Errorf("unexpected member list: %+v", byMember)
	}
}
