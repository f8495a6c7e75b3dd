package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/testutil"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u1", "password", "a@example.com")
	logger.Logout(ctx, req, "u1")
}

func TestLogger_CategorySettings(t *testing.T) {
	tests := []struct {
		name     string
		config   auditlog.Config
		wantAuth int
		wantAdm  int
	}{
		{"off", auditlog.Config{Auth: auditlog.Off, Admin: auditlog.Off}, 0, 0},
		{"db", auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB}, 1, 1},
		{"log only", auditlog.Config{Auth: auditlog.Log, Admin: auditlog.Log}, 0, 0},
		{"auth only", auditlog.Config{Auth: auditlog.All, Admin: auditlog.Off}, 1, 0},
		{"empty means all", auditlog.Config{}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), tt.config)
			req := httptest.NewRequest("POST", "/login", nil)
			logger.LoginSuccess(ctx, req, "target", "password", "t@example.com")
			logger.ReferralLinkGenerated(ctx, req, "staff", "target", "REF-target-1", "p1")

			authN, _ := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
			admN, _ := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
			if int(authN) != tt.wantAuth || int(admN) != tt.wantAdm {
				t.Errorf("auth=%d admin=%d, want %d/%d", authN, admN, tt.wantAuth, tt.wantAdm)
			}
		})
	}
}

func TestLogger_ReferralLinkGenerated_Details(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: auditlog.DB})
	logger.ReferralLinkGenerated(ctx, httptest.NewRequest("POST", "/referrals", nil), "staff", "m1", "REF-m1-5", "p1")

	events, err := store.GetByUser(ctx, "m1", 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ActorID != "staff" || ev.Details["referral_code"] != "REF-m1-5" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestLogger_ClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		wantIP string
	}{
		{"forwarded first hop", "203.0.113.195, 10.0.0.1", "192.168.1.1", "127.0.0.1:12345", "203.0.113.195"},
		{"real ip", "", "192.168.1.100", "127.0.0.1:12345", "192.168.1.100"},
		{"remote addr without port", "", "", "10.0.0.5:12345", "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB})
			req := httptest.NewRequest("GET", "/", nil)
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			req.RemoteAddr = tt.remote

			logger.Logout(ctx, req, "u1")

			events, _ := store.GetByUser(ctx, "u1", 10)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].IP != tt.wantIP {
				t.Errorf("IP: got %q, want %q", events[0].IP, tt.wantIP)
			}
		})
	}
}
