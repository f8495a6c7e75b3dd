package rewards_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/loyaltyhub/internal/app/features/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/redemption"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*rewards.Handler, *memberstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ms := memberstore.New(db)
	rs := rewardstore.New(db)
	svc := redemption.New(redemption.MongoRunner(db.Client()), ms, rs, zap.NewNop())
	return rewards.NewHandler(rs, svc, nil, zap.NewNop()), ms, testutil.NewFixtures(t, db)
}

func redeem(h *rewards.Handler, rewardID, memberID string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPost, "/rewards/"+rewardID+"/redeem", nil), "id", rewardID)
	h.HandleRedeem(rec, testutil.WithUser(req, testutil.MemberUser(memberID)))
	return rec
}

func TestHandleRedeem(t *testing.T) {
	h, ms, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Ada", "ada@example.com", 120)
	rt := fx.CreateRewardType(ctx, "Coffee", 50)

	rec := redeem(h, rt.ID.Hex(), m.ID)
	rec.AssertStatus(t, http.StatusCreated)
	var red models.Redemption
	rec.DecodeJSON(t, &red)
	if red.Status != models.RedemptionPending || red.Points != 50 || red.UserID != m.ID {
		t.Errorf("redemption = %+v", red)
	}

	redeem(h, rt.ID.Hex(), m.ID).AssertStatus(t, http.StatusCreated)
	rec = redeem(h, rt.ID.Hex(), m.ID)
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, "not enough points")

	got, err := ms.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Points != 20 {
		t.Errorf("points = %d, want 20", got.Points)
	}

	rec = testutil.NewRecorder()
	h.ServeMine(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodGet, "/rewards/mine", nil), testutil.MemberUser(m.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"redeemed_points":100`)
}

func TestHandleRedeem_BadReward(t *testing.T) {
	h, _, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Ada", "ada@example.com", 120)

	redeem(h, "nope", m.ID).AssertStatus(t, http.StatusBadRequest)
	redeem(h, "0123456789abcdef01234567", m.ID).AssertStatus(t, http.StatusNotFound)
}

func TestCatalog(t *testing.T) {
	h, _, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateRewardType(ctx, "Coffee", 50)

	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(http.MethodPost, "/rewards", map[string]any{"name": "Tote bag", "points": 200})
	h.HandleCreate(rec, testutil.WithUser(req, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	req = testutil.NewJSONRequest(http.MethodPost, "/rewards", map[string]any{"name": "Free", "points": 0})
	h.HandleCreate(rec, testutil.WithUser(req, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ServeCatalog(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodGet, "/rewards", nil), testutil.MemberUser("m1")))
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Rewards []models.RewardType `json:"rewards"`
	}
	rec.DecodeJSON(t, &out)
	if len(out.Rewards) != 2 || out.Rewards[0].Name != "Coffee" {
		t.Errorf("catalog = %+v", out.Rewards)
	}
}
