// Package readtracking records which members have read which notifications.
//
// Each (notification, member) pair moves from unread to read exactly once.
// The transition is a single conditional update on the notification
// document (push reader + bump read_count, filtered on the member being
// absent), so concurrent or repeated calls never double count.
package readtracking

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the subset of the notifications store the engine uses.
type Store interface {
	AppendReaderIfAbsent(ctx context.Context, id primitive.ObjectID, entry models.ReaderEntry) (bool, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	CountUnread(ctx context.Context, memberID string) (int64, error)
}

// Outcome reports what MarkAsRead did.
type Outcome int

const (
	NewlyMarked Outcome = iota + 1
	AlreadyRead
)

func (o Outcome) String() string {
	switch o {
	case NewlyMarked:
		return "newly_marked"
	case AlreadyRead:
		return "already_read"
	}
	return "unknown"
}

// Reader identifies the member acknowledging a notification.
type Reader struct {
	MemberID string
	Name     string
}

type Engine struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func New(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// MarkAsRead appends reader to the notification unless already present.
// The caller is trusted to have authenticated reader.MemberID.
func (e *Engine) MarkAsRead(ctx context.Context, notificationID string, reader Reader) (Outcome, error) {
	out, err := e.markAsRead(ctx, notificationID, reader)
	label := metrics.OutcomeError
	switch {
	case err == nil && out == NewlyMarked:
		label = metrics.OutcomeNewlyMarked
	case err == nil:
		label = metrics.OutcomeAlreadyRead
	case apperr.IsNotFound(err):
		label = metrics.OutcomeNotFound
	case apperr.IsValidation(err):
		label = metrics.OutcomeInvalid
	}
	metrics.NotificationReads.WithLabelValues(label).Inc()
	return out, err
}

func (e *Engine) markAsRead(ctx context.Context, notificationID string, reader Reader) (Outcome, error) {
	id, err := parseID(notificationID)
	if err != nil {
		return 0, err
	}
	memberID := strings.TrimSpace(reader.MemberID)
	if memberID == "" {
		return 0, apperr.Validation("member id is required")
	}

	entry := models.ReaderEntry{MemberID: memberID, Name: reader.Name, ReadAt: e.now()}
	appended, err := e.store.AppendReaderIfAbsent(ctx, id, entry)
	if err != nil {
		e.logger.Error("readtracking: append reader failed",
			zap.String("notification_id", notificationID),
			zap.String("member_id", memberID),
			zap.Error(err))
		return 0, apperr.Store("mark notification read", err)
	}
	if appended {
		return NewlyMarked, nil
	}

	// Nothing matched: either the member is already listed or the
	// notification is gone.
	ok, err := e.store.Exists(ctx, id)
	if err != nil {
		return 0, apperr.Store("check notification", err)
	}
	if !ok {
		return 0, apperr.NotFound("notification", notificationID)
	}
	return AlreadyRead, nil
}

// FetchReaders returns the reader entries ordered by read time, keeping
// insertion order for equal timestamps.
func (e *Engine) FetchReaders(ctx context.Context, notificationID string) ([]models.ReaderEntry, error) {
	id, err := parseID(notificationID)
	if err != nil {
		return nil, err
	}
	n, err := e.store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("notification", notificationID)
	}
	if err != nil {
		return nil, apperr.Store("load notification", err)
	}
	readers := append([]models.ReaderEntry(nil), n.Readers...)
	sort.SliceStable(readers, func(i, j int) bool {
		return readers[i].ReadAt.Before(readers[j].ReadAt)
	})
	return readers, nil
}

// HasReader reports whether memberID appears in n's reader list.
func HasReader(n models.Notification, memberID string) bool {
	for _, r := range n.Readers {
		if r.MemberID == memberID {
			return true
		}
	}
	return false
}

// UnreadCount counts every notification memberID has not read.
func (e *Engine) UnreadCount(ctx context.Context, memberID string) (int64, error) {
	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return 0, apperr.Validation("member id is required")
	}
	n, err := e.store.CountUnread(ctx, memberID)
	if err != nil {
		return 0, apperr.Store("count unread", err)
	}
	return n, nil
}

// Annotated is a notification with the caller's read state attached.
type Annotated struct {
	models.Notification
	IsRead bool `json:"is_read"`
}

// Annotate attaches memberID's read state to each notification, keeping
// order.
func Annotate(memberID string, notifications []models.Notification) []Annotated {
	out := make([]Annotated, len(notifications))
	for i, n := range notifications {
		out[i] = Annotated{Notification: n, IsRead: HasReader(n, memberID)}
	}
	return out
}

func parseID(s string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.NilObjectID, apperr.Validation("notification id is required")
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid notification id %q", s)
	}
	return id, nil
}
