// Package accountdeletion removes a member's identity record and member
// document. Identity calls go through a circuit breaker so a failing
// provider does not pile up slow deletes.
package accountdeletion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/identity"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Identities deletes identity records. A missing record reports
// identity.ErrNotFound.
type Identities interface {
	Delete(ctx context.Context, id string) error
}

// Members deletes member documents and reports how many were removed.
type Members interface {
	Delete(ctx context.Context, id string) (int64, error)
}

// BreakerConfig tunes the identity circuit breaker.
type BreakerConfig struct {
	Failures uint32        // consecutive failures before opening
	Timeout  time.Duration // open period before a half-open probe
}

// DefaultBreaker is used when New receives a zero config.
var DefaultBreaker = BreakerConfig{Failures: 5, Timeout: 30 * time.Second}

// Result describes what a deletion removed. Both false means the account
// was already gone.
type Result struct {
	IdentityDeleted bool `json:"identity_deleted"`
	MemberDeleted   bool `json:"member_deleted"`
}

type Service struct {
	identities Identities
	members    Members
	breaker    *gobreaker.CircuitBreaker[struct{}]
	logger     *zap.Logger
}

func New(identities Identities, members Members, cfg BreakerConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Failures == 0 {
		cfg.Failures = DefaultBreaker.Failures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreaker.Timeout
	}
	s := &Service{identities: identities, members: members, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "identity",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, identity.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.IdentityBreakerState.Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

// Delete removes the identity then the member document for memberID.
// Either record already being absent counts as success.
func (s *Service) Delete(ctx context.Context, memberID string) (Result, error) {
	res, err := s.delete(ctx, memberID)
	switch {
	case err == nil:
		metrics.AccountDeletions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case apperr.IsValidation(err):
		metrics.AccountDeletions.WithLabelValues(metrics.OutcomeInvalid).Inc()
	default:
		metrics.AccountDeletions.WithLabelValues(metrics.OutcomeError).Inc()
	}
	return res, err
}

func (s *Service) delete(ctx context.Context, memberID string) (Result, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return Result{}, apperr.Validation("member id is required")
	}

	var res Result
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.identities.Delete(ctx, memberID)
	})
	switch {
	case err == nil:
		res.IdentityDeleted = true
	case errors.Is(err, identity.ErrNotFound):
		s.logger.Info("account deletion: identity already absent", zap.String("member_id", memberID))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.Warn("account deletion: identity provider unavailable", zap.String("member_id", memberID), zap.Error(err))
		return res, apperr.Store("identity provider unavailable", err)
	default:
		s.logger.Error("account deletion: delete identity failed", zap.String("member_id", memberID), zap.Error(err))
		return res, apperr.Store("delete identity", err)
	}

	n, err := s.members.Delete(ctx, memberID)
	if err != nil {
		s.logger.Error("account deletion: delete member failed", zap.String("member_id", memberID), zap.Error(err))
		return res, apperr.Store("delete member", err)
	}
	res.MemberDeleted = n > 0

	s.logger.Info("account deleted",
		zap.String("member_id", memberID),
		zap.Bool("identity_deleted", res.IdentityDeleted),
		zap.Bool("member_deleted", res.MemberDeleted))
	return res, nil
}

// BreakerState reports the identity breaker state, for health output.
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}
