package memberstore_test

import (
	"testing"

	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Member(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{
		ID:          "m-1",
		Name:        "  Sara   Ali ",
		Email:       "SARA@Example.com",
		Role:        "member",
		IsActive:    true,
		PhoneNumber: "050 123",
		ReferredBy:  "REF-x-1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Name != "Sara Ali" || m.Email != "sara@example.com" {
		t.Errorf("fields not normalized: %+v", m)
	}
	if m.MembershipLevel != models.TierBronze {
		t.Errorf("expected bronze default, got %q", m.MembershipLevel)
	}
	if m.JoinDate == nil {
		t.Error("expected join date to default")
	}

	got, err := store.GetByID(ctx, "m-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ReferredBy != "REF-x-1" {
		t.Errorf("referred_by = %q, want stored verbatim", got.ReferredBy)
	}
	if got.PhoneNumber != "050123" {
		t.Errorf("phone = %q", got.PhoneNumber)
	}
}

func TestStore_Create_StaffDropsMemberFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{
		ID:         "e-1",
		Name:       "Omar",
		Email:      "omar@example.com",
		Role:       "employee",
		Points:     500,
		City:       "Riyadh",
		ReferredBy: "REF-x-1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.Points != 0 || m.City != "" || m.ReferredBy != "" || m.JoinDate != nil {
		t.Errorf("member-only fields kept on staff: %+v", m)
	}
}

func TestStore_Create_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "x", Name: "X", Email: "x@example.com", Role: "guest"}); err == nil {
		t.Error("expected error for bad role")
	}
	if _, err := store.Create(ctx, models.Member{Name: "X", Email: "x@example.com", Role: "member"}); err == nil {
		t.Error("expected error for missing id")
	}

	if _, err := store.Create(ctx, models.Member{ID: "a", Name: "A", Email: "a@example.com", Role: "member"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Member{ID: "a", Name: "A2", Email: "a2@example.com", Role: "member"})
	if err != memberstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail on duplicate _id, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, "missing"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_EnsureMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, created, err := store.EnsureMember(ctx, "g-1", "Lina", "lina@example.com")
	if err != nil {
		t.Fatalf("EnsureMember failed: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}
	if m.Role != models.RoleMember || m.MembershipLevel != models.TierBronze || m.Points != 0 {
		t.Errorf("unexpected defaults: %+v", m)
	}

	_, created, err = store.EnsureMember(ctx, "g-1", "Other", "other@example.com")
	if err != nil {
		t.Fatalf("EnsureMember (second) failed: %v", err)
	}
	if created {
		t.Error("expected second call to find the existing member")
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, in := range []models.Member{
		{ID: "1", Name: "Zaid", Email: "z@example.com", Role: "member", IsActive: true},
		{ID: "2", Name: "Sara", Email: "s@example.com", Role: "member", IsActive: true},
		{ID: "3", Name: "Samir", Email: "sm@example.com", Role: "member"},
		{ID: "4", Name: "Sam Admin", Email: "adm@example.com", Role: "admin", IsActive: true},
	} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter memberstore.ListFilter
		want   []string
	}{
		{"all members ordered by name", memberstore.ListFilter{Role: "member"}, []string{"Samir", "Sara", "Zaid"}},
		{"prefix case-insensitive", memberstore.ListFilter{Role: "member", NamePrefix: "sa"}, []string{"Samir", "Sara"}},
		{"active only", memberstore.ListFilter{Role: "member", ActiveOnly: true}, []string{"Sara", "Zaid"}},
		{"limit", memberstore.ListFilter{Role: "member", Limit: 1}, []string{"Samir"}},
		{"regex chars are literal", memberstore.ListFilter{NamePrefix: "s.*"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d members, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Name != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, m.Name, tt.want[i])
				}
			}
		})
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "m", Name: "Old", Email: "m@example.com", Role: "member"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name, city, tier := "New Name", "Jeddah", "GOLD"
	if err := store.UpdateProfile(ctx, "m", memberstore.ProfileUpdate{Name: &name, City: &city, MembershipLevel: &tier}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "m")
	if got.Name != "New Name" || got.City != "Jeddah" || got.MembershipLevel != "gold" {
		t.Errorf("unexpected profile: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Error("expected updated_at stamped")
	}

	if err := store.UpdateProfile(ctx, "missing", memberstore.ProfileUpdate{Name: &name}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ToggleActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "m", Name: "M", Email: "m@example.com", Role: "member", IsActive: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	active, err := store.ToggleActive(ctx, "m")
	if err != nil {
		t.Fatalf("ToggleActive failed: %v", err)
	}
	if active {
		t.Error("expected inactive after first toggle")
	}
	active, _ = store.ToggleActive(ctx, "m")
	if !active {
		t.Error("expected active after second toggle")
	}

	if _, err := store.ToggleActive(ctx, "missing"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_ReferredBy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, in := range []models.Member{
		{ID: "1", Name: "A", Email: "a@example.com", Role: "member", ReferredBy: "REF-m1-1"},
		{ID: "2", Name: "B", Email: "b@example.com", Role: "member", ReferredBy: "REF-m1-1"},
		{ID: "3", Name: "C", Email: "c@example.com", Role: "member", ReferredBy: "ref-m1-1"},
	} {
		if _, err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	n, err := store.CountReferredBy(ctx, "REF-m1-1")
	if err != nil {
		t.Fatalf("CountReferredBy failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2 (exact match only)", n)
	}

	list, err := store.ListReferredBy(ctx, "REF-m1-1")
	if err != nil {
		t.Fatalf("ListReferredBy failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "1" {
		t.Errorf("unexpected referrals: %+v", list)
	}
}

func TestStore_Points(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "m", Name: "M", Email: "m@example.com", Role: "member", Points: 100}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.DebitPoints(ctx, "m", 60)
	if err != nil || !ok {
		t.Fatalf("DebitPoints(60) = %v, %v", ok, err)
	}
	ok, err = store.DebitPoints(ctx, "m", 60)
	if err != nil {
		t.Fatalf("DebitPoints failed: %v", err)
	}
	if ok {
		t.Error("expected insufficient balance")
	}

	if err := store.AddPoints(ctx, "m", 20); err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	got, _ := store.GetByID(ctx, "m")
	if got.Points != 60 {
		t.Errorf("points = %d, want 60", got.Points)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "m", Name: "M", Email: "m@example.com", Role: "member"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	n, err := store.Delete(ctx, "m")
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	n, _ = store.Delete(ctx, "m")
	if n != 0 {
		t.Errorf("second Delete = %d, want 0", n)
	}
}

func TestStore_PromoteToAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{ID: "m", Name: "M", Email: "m@example.com", Role: "member", Points: 40}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.PromoteToAdmin(ctx, "m"); err != nil {
		t.Fatalf("PromoteToAdmin failed: %v", err)
	}
	got, err := store.GetByID(ctx, "m")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleAdmin || got.Points != 0 || got.MembershipLevel != "" || got.JoinDate != nil {
		t.Errorf("promoted account = %+v", got)
	}
	if err := store.PromoteToAdmin(ctx, "missing"); err != mongo.ErrNoDocuments {
		t.Errorf("PromoteToAdmin(missing) = %v, want ErrNoDocuments", err)
	}
}
