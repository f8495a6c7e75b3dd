package bootstrap

import (
	"testing"

	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	deps := DBDeps{MongoDatabase: db}
	ids := identity.NewMongoProvider(db).WithCost(4)

	if err := ensureAdmin(ctx, deps, ids, "Admin@Test.com", "correct-horse", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	m, err := memberstore.New(db).GetByEmail(ctx, "admin@test.com")
	if err != nil {
		t.Fatalf("failed to find created account: %v", err)
	}
	if m.Role != models.RoleAdmin || !m.IsActive {
		t.Errorf("account = %+v", m)
	}
	if _, err := ids.Authenticate(ctx, "admin@test.com", "correct-horse"); err != nil {
		t.Errorf("admin cannot sign in: %v", err)
	}

	// second run is a no-op
	if err := ensureAdmin(ctx, deps, ids, "admin@test.com", "correct-horse", testLogger()); err != nil {
		t.Fatalf("second ensureAdmin failed: %v", err)
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := testutil.NewFixtures(t, db).CreateMember(ctx, "Ada", "ada@test.com", 30)

	err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, identity.NewMongoProvider(db), "ada@test.com", "", testLogger())
	if err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	got, err := memberstore.New(db).GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleAdmin || got.Points != 0 {
		t.Errorf("promoted account = %+v", got)
	}
}

func TestEnsureAdmin_NoPasswordSkips(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := ensureAdmin(ctx, DBDeps{MongoDatabase: db}, identity.NewMongoProvider(db), "nobody@test.com", "", testLogger())
	if err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	if _, err := memberstore.New(db).GetByEmail(ctx, "nobody@test.com"); err == nil {
		t.Error("account created without a password")
	}
}

func TestValidateConfig(t *testing.T) {
	good := AppConfig{
		MongoURI:                "mongodb://localhost:27017",
		MongoDatabase:           "loyalty_hub",
		AuditLogAuth:            "all",
		AuditLogAdmin:           "db",
		LoginRateLimit:          10,
		IdentityBreakerFailures: 5,
	}
	if err := ValidateConfig(nil, good, testLogger()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"empty database", func(c *AppConfig) { c.MongoDatabase = "" }},
		{"bad audit setting", func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }},
		{"negative rate limit", func(c *AppConfig) { c.LoginRateLimit = -1 }},
		{"bcrypt cost too high", func(c *AppConfig) { c.BcryptCost = 40 }},
		{"zero breaker failures", func(c *AppConfig) { c.IdentityBreakerFailures = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			if err := ValidateConfig(nil, cfg, testLogger()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
