package login_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/features/login"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/signin"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// stubProvider accepts one email/password pair.
type stubProvider struct {
	identity.Provider
	ident    models.Identity
	password string
}

func (s stubProvider) Authenticate(_ context.Context, email, password string) (models.Identity, error) {
	if email != s.ident.Email {
		return models.Identity{}, identity.ErrNotFound
	}
	if password != s.password {
		return models.Identity{}, identity.ErrInvalidCredentials
	}
	return s.ident, nil
}

func newHandler(t *testing.T, db *mongo.Database) *login.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	prov := stubProvider{
		ident:    models.Identity{ID: "ident-1", Email: "ada@example.com", DisplayName: "Ada"},
		password: "correct horse",
	}
	fin := &signin.Finisher{Members: memberstore.New(db), Sessions: sm, Log: zap.NewNop()}
	return login.NewHandler(prov, fin, nil, zap.NewNop())
}

func post(h *login.Handler, body any) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(http.MethodPost, "/login", body))
	return rec
}

func TestHandleLogin_FirstSignInCreatesMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := post(h, map[string]string{"email": " Ada@Example.com ", "password": "correct horse"})
	rec.AssertStatus(t, http.StatusOK)
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("expected a session cookie")
	}

	var body struct {
		User models.Member `json:"user"`
	}
	rec.DecodeJSON(t, &body)
	if body.User.ID != "ident-1" || body.User.Role != models.RoleMember {
		t.Errorf("user = %+v", body.User)
	}
	if body.User.MembershipLevel != models.TierBronze || body.User.Points != 0 {
		t.Errorf("defaults not applied: %+v", body.User)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := post(h, map[string]string{"email": "ada@example.com", "password": "nope"})
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "Invalid email or password.")

	rec = post(h, map[string]string{"email": "ghost@example.com", "password": "nope"})
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleLogin_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := post(h, map[string]string{"email": "ada@example.com"})
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Password is required.")

	rec = post(h, map[string]string{"email": "not-an-email", "password": "x"})
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = post(h, nil)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleLogin_DisabledAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("users").InsertOne(ctx, bson.M{
		"_id": "ident-1", "name": "Ada", "name_ci": "ada", "email": "ada@example.com",
		"role": models.RoleMember, "is_active": false, "created_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec := post(h, map[string]string{"email": "ada@example.com", "password": "correct horse"})
	rec.AssertStatus(t, http.StatusForbidden)
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("disabled account must not get a session")
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := login.Routes(newHandler(t, db), 2)

	var last int
	for i := 0; i < 3; i++ {
		rec := testutil.NewRecorder()
		req := testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"email": "ada@example.com", "password": "nope"})
		req.RemoteAddr = "203.0.113.9:4000"
		r.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}
