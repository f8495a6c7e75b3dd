// Package metrics holds the Prometheus collectors for the loyalty engines
// and the sign-in path. They register on the default registry and are
// served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess      = "success"
	OutcomeNewlyMarked  = "newly_marked"
	OutcomeAlreadyRead  = "already_read"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeInsufficient = "insufficient_points"
	OutcomeError        = "error"
)

var (
	// ReferralLinksGenerated counts GenerateLink calls.
	// Labels:
	//   - outcome: success, invalid, error
	ReferralLinksGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_referral_links_generated_total",
			Help: "Referral link generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ReferralStatsQueries counts ComputeStats calls.
	ReferralStatsQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_referral_stats_queries_total",
			Help: "Referral stats lookups by outcome",
		},
		[]string{"outcome"},
	)

	// NotificationReads counts MarkAsRead calls.
	// Labels:
	//   - outcome: newly_marked, already_read, not_found, invalid, error
	NotificationReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_notification_reads_total",
			Help: "Mark-as-read requests by outcome",
		},
		[]string{"outcome"},
	)

	// Redemptions counts reward redemption attempts.
	Redemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_redemptions_total",
			Help: "Reward redemptions by outcome",
		},
		[]string{"outcome"},
	)

	// LoginAttempts counts sign-in attempts.
	// Labels:
	//   - provider: password, google
	//   - outcome: success, invalid, error
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_login_attempts_total",
			Help: "Sign-in attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// IdentityBreakerState reports the identity circuit breaker state
	// (0 closed, 1 half-open, 2 open).
	IdentityBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loyalty_identity_breaker_state",
			Help: "State of the identity provider circuit breaker",
		},
	)

	// AccountDeletions counts account deletion attempts.
	AccountDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_account_deletions_total",
			Help: "Account deletions by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
