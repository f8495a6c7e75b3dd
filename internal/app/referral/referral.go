// Package referral generates shareable referral links and derives signup
// statistics from the members that carry a link's code.
//
// Attribution is never written here: member registration stores the
// referring code verbatim, and this package only counts. Unknown or
// orphaned codes simply have no signups.
package referral

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/metrics"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CodePrefix starts every generated referral code.
const CodePrefix = "REF-"

// Members is the subset of the members store the engine reads.
type Members interface {
	GetByID(ctx context.Context, id string) (*models.Member, error)
	CountReferredBy(ctx context.Context, code string) (int64, error)
	ListReferredBy(ctx context.Context, code string) ([]models.Member, error)
}

// Links persists and lists referral links. Links are never updated.
type Links interface {
	Insert(ctx context.Context, link models.ReferralLink) (models.ReferralLink, error)
	ListByCreator(ctx context.Context, userID string) ([]models.ReferralLink, error)
	ListByMember(ctx context.Context, memberID string) ([]models.ReferralLink, error)
}

// Stats is the engagement summary for one code. Clicks and Rewards are
// fixed multiples of SignUps until real click tracking exists.
type Stats struct {
	Code    string `json:"code"`
	SignUps int64  `json:"sign_ups"`
	Clicks  int64  `json:"clicks"`
	Rewards int64  `json:"rewards"`
}

const (
	clicksPerSignUp  = 2
	rewardsPerSignUp = 10
)

// Referral is one member attributed to a code.
type Referral struct {
	MemberID string     `json:"member_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

type Engine struct {
	members Members
	links   Links
	clock   *stampClock
	logger  *zap.Logger
}

type Option func(*Engine)

// WithClock replaces the wall clock used for code stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = newStampClock(now) }
}

func New(members Members, links Links, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		members: members,
		links:   links,
		clock:   newStampClock(time.Now),
		logger:  logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// GenerateLink creates and persists a new referral link for memberID on
// projectID. creatorID is the identity performing the call and is recorded
// on the link. Every call yields a distinct code, so re-issuing after a
// failure may leave two links for the same pair.
func (e *Engine) GenerateLink(ctx context.Context, snap models.ConfigSnapshot, creatorID, memberID, projectID string) (models.ReferralLink, error) {
	link, err := e.generate(ctx, snap, creatorID, memberID, projectID)
	switch {
	case err == nil:
		metrics.ReferralLinksGenerated.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case apperr.IsValidation(err):
		metrics.ReferralLinksGenerated.WithLabelValues(metrics.OutcomeInvalid).Inc()
	default:
		metrics.ReferralLinksGenerated.WithLabelValues(metrics.OutcomeError).Inc()
	}
	return link, err
}

func (e *Engine) generate(ctx context.Context, snap models.ConfigSnapshot, creatorID, memberID, projectID string) (models.ReferralLink, error) {
	memberID = strings.TrimSpace(memberID)
	projectID = strings.TrimSpace(projectID)
	if memberID == "" {
		return models.ReferralLink{}, apperr.Validation("member id is required")
	}
	if projectID == "" {
		return models.ReferralLink{}, apperr.Validation("project id is required")
	}

	project, ok := snap.Project(projectID)
	if !ok {
		return models.ReferralLink{}, apperr.Validation("project %q is not configured", projectID)
	}

	m, err := e.members.GetByID(ctx, memberID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ReferralLink{}, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: "referral links can only be generated for existing members",
			Err:     apperr.NotFound("member", memberID),
		}
	}
	if err != nil {
		e.logger.Error("referral: load member failed", zap.String("member_id", memberID), zap.Error(err))
		return models.ReferralLink{}, apperr.Store("load member", err)
	}
	if !m.IsMember() {
		return models.ReferralLink{}, apperr.Validation("%q does not hold the member role", memberID)
	}

	stamp := e.clock.next()
	code := Code(memberID, stamp)
	link := models.ReferralLink{
		UserID:       creatorID,
		MemberID:     memberID,
		ReferralCode: code,
		ReferralLink: BuildURL(project.Link, code, project.ID),
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		CreatedAt:    time.UnixMilli(stamp).UTC(),
	}

	saved, err := e.links.Insert(ctx, link)
	if err != nil {
		e.logger.Error("referral: insert link failed",
			zap.String("member_id", memberID),
			zap.String("project_id", projectID),
			zap.Error(err))
		return models.ReferralLink{}, apperr.Store("insert referral link", err)
	}

	e.logger.Info("referral link generated",
		zap.String("code", code),
		zap.String("member_id", memberID),
		zap.String("project_id", projectID),
		zap.String("creator_id", creatorID))
	return saved, nil
}

// Code formats a referral code from a member id and millisecond stamp.
func Code(memberID string, unixMillis int64) string {
	return fmt.Sprintf("%s%s-%d", CodePrefix, memberID, unixMillis)
}

// BuildURL appends ref then project to base, joining with & when base
// already has a query string.
func BuildURL(base, code, projectID string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	return base + sep + "ref=" + url.QueryEscape(code) + "&project=" + url.QueryEscape(projectID)
}

// ComputeStats counts the members attributed to code. Unknown codes yield
// zeros, not an error.
func (e *Engine) ComputeStats(ctx context.Context, code string) (Stats, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		metrics.ReferralStatsQueries.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return Stats{}, apperr.Validation("referral code is required")
	}
	n, err := e.members.CountReferredBy(ctx, code)
	if err != nil {
		metrics.ReferralStatsQueries.WithLabelValues(metrics.OutcomeError).Inc()
		e.logger.Error("referral: count signups failed", zap.String("code", code), zap.Error(err))
		return Stats{}, apperr.Store("count referred members", err)
	}
	metrics.ReferralStatsQueries.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return Stats{
		Code:    code,
		SignUps: n,
		Clicks:  n * clicksPerSignUp,
		Rewards: n * rewardsPerSignUp,
	}, nil
}

// Referrals lists the members attributed to code, oldest first.
func (e *Engine) Referrals(ctx context.Context, code string) ([]Referral, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("referral code is required")
	}
	ms, err := e.members.ListReferredBy(ctx, code)
	if err != nil {
		e.logger.Error("referral: list signups failed", zap.String("code", code), zap.Error(err))
		return nil, apperr.Store("list referred members", err)
	}
	out := make([]Referral, 0, len(ms))
	for _, m := range ms {
		joined := m.JoinDate
		if joined == nil {
			c := m.CreatedAt
			joined = &c
		}
		out = append(out, Referral{MemberID: m.ID, Name: m.Name, Email: m.Email, JoinedAt: joined})
	}
	return out, nil
}

// LinksForCreator lists links generated by the given identity, newest first.
func (e *Engine) LinksForCreator(ctx context.Context, creatorID string) ([]models.ReferralLink, error) {
	if strings.TrimSpace(creatorID) == "" {
		return nil, apperr.Validation("creator id is required")
	}
	links, err := e.links.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, apperr.Store("list referral links", err)
	}
	return links, nil
}

// LinksForMember lists links that belong to memberID, newest first.
func (e *Engine) LinksForMember(ctx context.Context, memberID string) ([]models.ReferralLink, error) {
	if strings.TrimSpace(memberID) == "" {
		return nil, apperr.Validation("member id is required")
	}
	links, err := e.links.ListByMember(ctx, memberID)
	if err != nil {
		return nil, apperr.Store("list referral links", err)
	}
	return links, nil
}
