package activities_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/loyaltyhub/internal/app/features/activities"
	"github.com/dalemusser/loyaltyhub/internal/app/participation"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	"github.com/dalemusser/loyaltyhub/internal/app/system/txn"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*activities.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	as := activitystore.New(db)
	ms := memberstore.New(db)
	part := participation.New(txn.ClientRunner(db.Client()), as, ms, zap.NewNop())
	h := activities.NewHandler(as, ms, part, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func create(h *activities.Handler, body map[string]any) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	req := testutil.NewJSONRequest(http.MethodPost, "/activities", body)
	h.HandleCreate(rec, testutil.WithUser(req, testutil.EmployeeUser()))
	return rec
}

func TestHandleCreate_NameChecks(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateActivity(ctx, "Beach Cleanup", 10)

	rec := create(h, map[string]any{"name": "BEACH CLEANUP", "points": 5})
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"code":"conflict"`)

	rec = create(h, map[string]any{"name": "Beach Clean Day", "points": 5})
	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"code":"similar_name"`)
	rec.AssertContains(t, "Beach Cleanup")

	rec = create(h, map[string]any{"name": "Beach Clean Day", "points": 5, "force": true})
	rec.AssertStatus(t, http.StatusCreated)
	var a models.Activity
	rec.DecodeJSON(t, &a)
	if a.Name != "Beach Clean Day" || !a.IsActive || a.Points != 5 {
		t.Errorf("created %+v", a)
	}

	create(h, map[string]any{"name": "Quiz", "points": -1}).AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpdate(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateActivity(ctx, "Beach Cleanup", 10)
	fx.CreateActivity(ctx, "Quiz Night", 3)

	put := func(body map[string]any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPut, "/activities/"+a.ID.Hex(), body), "id", a.ID.Hex())
		h.HandleUpdate(rec, testutil.WithUser(req, testutil.AdminUser()))
		return rec
	}

	// unchanged name skips the checks
	rec := put(map[string]any{"name": "Beach Cleanup", "points": 20, "is_active": false})
	rec.AssertStatus(t, http.StatusOK)
	var got models.Activity
	rec.DecodeJSON(t, &got)
	if got.Points != 20 || got.IsActive {
		t.Errorf("updated %+v", got)
	}

	put(map[string]any{"name": "quiz night"}).AssertStatus(t, http.StatusConflict)
}

func TestHandleDelete(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateActivity(ctx, "Beach Cleanup", 10)

	del := func() *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodDelete, "/", nil), "id", a.ID.Hex())
		h.HandleDelete(rec, testutil.WithUser(req, testutil.AdminUser()))
		return rec
	}
	del().AssertStatus(t, http.StatusNoContent)
	del().AssertStatus(t, http.StatusNotFound)
}

func TestHandleAddParticipant_CreditsOnce(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateActivity(ctx, "Beach Cleanup", 10)
	m := fx.CreateMember(ctx, "Ada", "ada@example.com", 5)

	add := func(memberID string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.WithChiURLParam(testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"member_id": memberID}), "id", a.ID.Hex())
		h.HandleAddParticipant(rec, testutil.WithUser(req, testutil.EmployeeUser()))
		return rec
	}

	add(m.ID).AssertContains(t, `"added":true`)
	add(m.ID).AssertContains(t, `"added":false`)
	add("missing").AssertStatus(t, http.StatusNotFound)

	got, err := h.Members.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Points != 15 {
		t.Errorf("points = %d, want 15", got.Points)
	}

	feed, err := h.Activities.ListForParticipant(ctx, m.ID, 5)
	if err != nil || len(feed) != 1 || feed[0].ParticipantsCount != 1 {
		t.Errorf("feed = %+v, err %v", feed, err)
	}
}

func TestServeList(t *testing.T) {
	h, fx := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateActivity(ctx, "Beach Cleanup", 10)
	fx.CreateActivity(ctx, "Quiz Night", 3)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodGet, "/activities?q=qu", nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	var out struct {
		Activities []models.Activity `json:"activities"`
	}
	rec.DecodeJSON(t, &out)
	if len(out.Activities) != 1 || out.Activities[0].Name != "Quiz Night" {
		t.Errorf("got %+v", out.Activities)
	}

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodGet, "/activities?limit=zero", nil), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}
