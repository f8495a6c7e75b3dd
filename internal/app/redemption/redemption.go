// Package redemption spends member points on catalog rewards.
//
// A redemption is a conditional debit (points >= cost) plus a pending
// redemption record. Inside a transaction both commit together; on servers
// without transactions the debit is refunded if the insert fails.
package redemption

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/app/system/txn"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInsufficientPoints = &apperr.Error{Kind: apperr.KindConflict, Message: "not enough points for this reward"}
	ErrRewardUnavailable  = &apperr.Error{Kind: apperr.KindValidation, Message: "reward is not available"}
)

type Members interface {
	DebitPoints(ctx context.Context, id string, cost int64) (bool, error)
	AddPoints(ctx context.Context, id string, delta int64) error
}

type Rewards interface {
	GetType(ctx context.Context, id primitive.ObjectID) (*models.RewardType, error)
	InsertRedemption(ctx context.Context, r models.Redemption) (models.Redemption, error)
}

// Runner executes fn atomically where the server allows it.
type Runner = txn.Runner

// MongoRunner runs fn in a transaction on client, or directly when the
// deployment does not support transactions.
func MongoRunner(client *mongo.Client) Runner {
	return txn.ClientRunner(client)
}

type Service struct {
	run     Runner
	members Members
	rewards Rewards
	now     func() time.Time
	logger  *zap.Logger
}

func New(run Runner, members Members, rewards Rewards, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		run:     run,
		members: members,
		rewards: rewards,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// Redeem debits the reward's cost from memberID and records a pending
// redemption.
func (s *Service) Redeem(ctx context.Context, memberID, rewardID string) (models.Redemption, error) {
	red, err := s.redeem(ctx, memberID, rewardID)
	label := metrics.OutcomeError
	switch {
	case err == nil:
		label = metrics.OutcomeSuccess
	case apperr.IsConflict(err):
		label = metrics.OutcomeInsufficient
	case apperr.IsNotFound(err):
		label = metrics.OutcomeNotFound
	case apperr.IsValidation(err):
		label = metrics.OutcomeInvalid
	}
	metrics.Redemptions.WithLabelValues(label).Inc()
	return red, err
}

func (s *Service) redeem(ctx context.Context, memberID, rewardID string) (models.Redemption, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return models.Redemption{}, apperr.Validation("member id is required")
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(rewardID))
	if err != nil {
		return models.Redemption{}, apperr.Validation("invalid reward id %q", rewardID)
	}

	rt, err := s.rewards.GetType(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Redemption{}, apperr.NotFound("reward", rewardID)
	}
	if err != nil {
		return models.Redemption{}, apperr.Store("load reward", err)
	}
	if !rt.IsActive || rt.Points <= 0 {
		return models.Redemption{}, ErrRewardUnavailable
	}

	var out models.Redemption
	err = s.run(ctx, func(ctx context.Context) error {
		ok, err := s.members.DebitPoints(ctx, memberID, rt.Points)
		if err != nil {
			return apperr.Store("debit points", err)
		}
		if !ok {
			return ErrInsufficientPoints
		}
		out, err = s.rewards.InsertRedemption(ctx, models.Redemption{
			UserID:     memberID,
			RewardID:   rt.ID,
			RewardName: rt.Name,
			Points:     rt.Points,
			Status:     models.RedemptionPending,
			RedeemedAt: s.now(),
		})
		if err != nil {
			if !txn.InTransaction(ctx) {
				s.refund(ctx, memberID, rt.Points)
			}
			return apperr.Store("insert redemption", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Store("redeem", err)
		}
		if apperr.IsStore(err) {
			s.logger.Error("redemption failed",
				zap.String("member_id", memberID),
				zap.String("reward_id", rewardID),
				zap.Error(err))
		}
		return models.Redemption{}, err
	}

	s.logger.Info("reward redeemed",
		zap.String("member_id", memberID),
		zap.String("reward", rt.Name),
		zap.Int64("points", rt.Points))
	return out, nil
}

func (s *Service) refund(ctx context.Context, memberID string, points int64) {
	if err := s.members.AddPoints(ctx, memberID, points); err != nil {
		s.logger.Error("redemption refund failed; balance needs manual correction",
			zap.String("member_id", memberID),
			zap.Int64("points", points),
			zap.Error(err))
	}
}
