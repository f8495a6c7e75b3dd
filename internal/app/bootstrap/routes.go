// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/accountdeletion"
	activitiesfeature "github.com/dalemusser/loyaltyhub/internal/app/features/activities"
	authgooglefeature "github.com/dalemusser/loyaltyhub/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/loyaltyhub/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/loyaltyhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/loyaltyhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/loyaltyhub/internal/app/features/logout"
	mefeature "github.com/dalemusser/loyaltyhub/internal/app/features/me"
	membersfeature "github.com/dalemusser/loyaltyhub/internal/app/features/members"
	notificationsfeature "github.com/dalemusser/loyaltyhub/internal/app/features/notifications"
	referralsfeature "github.com/dalemusser/loyaltyhub/internal/app/features/referrals"
	rewardsfeature "github.com/dalemusser/loyaltyhub/internal/app/features/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/loyaltyhub/internal/app/features/shared/signin"
	"github.com/dalemusser/loyaltyhub/internal/app/participation"
	"github.com/dalemusser/loyaltyhub/internal/app/readtracking"
	"github.com/dalemusser/loyaltyhub/internal/app/redemption"
	"github.com/dalemusser/loyaltyhub/internal/app/referral"
	activitystore "github.com/dalemusser/loyaltyhub/internal/app/store/activities"
	appconfigstore "github.com/dalemusser/loyaltyhub/internal/app/store/appconfig"
	"github.com/dalemusser/loyaltyhub/internal/app/store/audit"
	memberstore "github.com/dalemusser/loyaltyhub/internal/app/store/members"
	notificationstore "github.com/dalemusser/loyaltyhub/internal/app/store/notifications"
	"github.com/dalemusser/loyaltyhub/internal/app/store/oauthstate"
	referralstore "github.com/dalemusser/loyaltyhub/internal/app/store/referrallinks"
	rewardstore "github.com/dalemusser/loyaltyhub/internal/app/store/rewards"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auditlog"
	"github.com/dalemusser/loyaltyhub/internal/app/system/auth"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. It builds the stores and engines once, applies
// the session middleware and mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Stores
	members := memberstore.New(db)
	sessionMgr.SetUserFetcher(memberstore.NewFetcher(members))
	configs := appconfigstore.New(db)
	links := referralstore.New(db)
	notifications := notificationstore.New(db)
	activities := activitystore.New(db)
	rewards := rewardstore.New(db)
	states := oauthstate.New(db)

	identities := identity.NewMongoProvider(db).WithCost(appCfg.BcryptCost)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Engines and services
	referrals := referral.New(members, links, logger)
	reads := readtracking.New(notifications, logger)
	deleter := accountdeletion.New(identities, members, accountdeletion.BreakerConfig{
		Failures: uint32(appCfg.IdentityBreakerFailures),
		Timeout:  appCfg.IdentityBreakerTimeout,
	}, logger)
	participants := participation.New(txn.ClientRunner(deps.MongoClient), activities, members, logger)
	redeemer := redemption.New(redemption.MongoRunner(deps.MongoClient), members, rewards, logger)
	finisher := &signin.Finisher{Members: members, Sessions: sessionMgr, Audit: auditLog, Log: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.Load)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	// Health and metrics for load balancers and scrapers
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deleter, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(identities, finisher, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler, appCfg.LoginRateLimit))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.With(sessionMgr.RequireSignedIn).Mount("/logout", logoutfeature.Routes(logoutHandler))

	googleHandler := authgooglefeature.NewHandler(identities, states, finisher, auditLog,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	if googleHandler.IsConfigured() {
		logger.Info("google sign-in enabled")
	}

	// Signed-in user
	meHandler := mefeature.NewHandler(members, logger)
	r.With(sessionMgr.RequireSignedIn).Mount("/me", mefeature.Routes(meHandler))

	dashboardHandler := dashboardfeature.NewHandler(members, activities, rewards, notifications, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Staff member management
	membersHandler := membersfeature.NewHandler(membersfeature.Deps{
		Members:    members,
		Identities: identities,
		Config:     configs,
		Referrals:  referrals,
		Activities: activities,
		Rewards:    rewards,
		Deleter:    deleter,
		AuditLog:   auditLog,
	}, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	// Referral links and attribution
	referralsHandler := referralsfeature.NewHandler(referrals, configs, auditLog, logger)
	r.Mount("/referrals", referralsfeature.Routes(referralsHandler, sessionMgr))

	// Notifications and read tracking
	notificationsHandler := notificationsfeature.NewHandler(notifications, reads, auditLog, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	// Activities and rewards
	activitiesHandler := activitiesfeature.NewHandler(activities, members, participants, auditLog, logger)
	r.Mount("/activities", activitiesfeature.Routes(activitiesHandler, sessionMgr))

	rewardsHandler := rewardsfeature.NewHandler(rewards, redeemer, auditLog, logger)
	r.Mount("/rewards", rewardsfeature.Routes(rewardsHandler, sessionMgr))

	return r, nil
}
