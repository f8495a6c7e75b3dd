// Package participation records members taking part in activities and
// credits the activity's points.
//
// Adding the participant and crediting the points commit together inside
// a transaction. Without transactions the participant is removed again when
// the credit fails, so a retry awards the points exactly once.
package participation

import (
	"context"
	"strings"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Activities interface {
	AddParticipant(ctx context.Context, id primitive.ObjectID, memberID string) (bool, error)
	RemoveParticipant(ctx context.Context, id primitive.ObjectID, memberID string) (bool, error)
}

type Members interface {
	AddPoints(ctx context.Context, id string, delta int64) error
}

type Service struct {
	run        txn.Runner
	activities Activities
	members    Members
	logger     *zap.Logger
}

func New(run txn.Runner, activities Activities, members Members, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{run: run, activities: activities, members: members, logger: logger}
}

// Add records memberID on activity id and credits points when the member
// was not listed yet. added is false for a repeat call, which credits
// nothing.
func (s *Service) Add(ctx context.Context, id primitive.ObjectID, memberID string, points int64) (added bool, err error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return false, apperr.Validation("member id is required")
	}

	err = s.run(ctx, func(ctx context.Context) error {
		added = false
		ok, err := s.activities.AddParticipant(ctx, id, memberID)
		if err != nil {
			return apperr.Store("add participant", err)
		}
		if !ok || points <= 0 {
			added = ok
			return nil
		}
		if err := s.members.AddPoints(ctx, memberID, points); err != nil {
			if !txn.InTransaction(ctx) {
				s.undo(ctx, id, memberID)
			}
			return apperr.Store("credit points", err)
		}
		added = true
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Store("add participant", err)
		}
		s.logger.Error("participation failed",
			zap.String("activity_id", id.Hex()),
			zap.String("member_id", memberID),
			zap.Error(err))
		return false, err
	}
	return added, nil
}

func (s *Service) undo(ctx context.Context, id primitive.ObjectID, memberID string) {
	if _, err := s.activities.RemoveParticipant(ctx, id, memberID); err != nil {
		s.logger.Error("participant recorded without points; manual fix needed",
			zap.String("activity_id", id.Hex()),
			zap.String("member_id", memberID),
			zap.Error(err))
	}
}
