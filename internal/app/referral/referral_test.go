package referral

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeMembers struct {
	mu      sync.Mutex
	byID    map[string]models.Member
	failGet error
	failCnt error
}

func newFakeMembers(ms ...models.Member) *fakeMembers {
	f := &fakeMembers{byID: map[string]models.Member{}}
	for _, m := range ms {
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMembers) add(m models.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.ID] = m
}

func (f *fakeMembers) GetByID(_ context.Context, id string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	m, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &m, nil
}

func (f *fakeMembers) CountReferredBy(ctx context.Context, code string) (int64, error) {
	ms, err := f.ListReferredBy(ctx, code)
	return int64(len(ms)), err
}

func (f *fakeMembers) ListReferredBy(_ context.Context, code string) ([]models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCnt != nil {
		return nil, f.failCnt
	}
	var out []models.Member
	for _, m := range f.byID {
		if m.ReferredBy == code {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeLinks struct {
	mu      sync.Mutex
	links   []models.ReferralLink
	codes   map[string]bool
	failIns error
}

func newFakeLinks() *fakeLinks { return &fakeLinks{codes: map[string]bool{}} }

func (f *fakeLinks) Insert(_ context.Context, l models.ReferralLink) (models.ReferralLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIns != nil {
		return models.ReferralLink{}, f.failIns
	}
	if f.codes[l.ReferralCode] {
		return models.ReferralLink{}, errors.New("duplicate key")
	}
	l.ID = primitive.NewObjectID()
	f.codes[l.ReferralCode] = true
	f.links = append(f.links, l)
	return l, nil
}

func (f *fakeLinks) filter(keep func(models.ReferralLink) bool) []models.ReferralLink {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReferralLink
	for i := len(f.links) - 1; i >= 0; i-- {
		if keep(f.links[i]) {
			out = append(out, f.links[i])
		}
	}
	return out
}

func (f *fakeLinks) ListByCreator(_ context.Context, userID string) ([]models.ReferralLink, error) {
	return f.filter(func(l models.ReferralLink) bool { return l.UserID == userID }), nil
}

func (f *fakeLinks) ListByMember(_ context.Context, memberID string) ([]models.ReferralLink, error) {
	return f.filter(func(l models.ReferralLink) bool { return l.MemberID == memberID }), nil
}

func (f *fakeLinks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

func member(id string) models.Member {
	return models.Member{ID: id, Name: "Member " + id, Email: id + "@x.test", Role: models.RoleMember, IsActive: true}
}

func snapshot() models.ConfigSnapshot {
	return models.ConfigSnapshot{
		Roles: models.DefaultRoles,
		Projects: []models.Project{
			{ID: "proj-A", Name: "Project A", Link: "https://x.test/go"},
			{ID: "proj-Q", Name: "Query", Link: "https://x.test/land?src=mail"},
		},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerateLink_BuildsCodeAndURL(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	links := newFakeLinks()
	e := New(newFakeMembers(member("m1")), links, nil, WithClock(fixedClock(at)))

	link, err := e.GenerateLink(context.Background(), snapshot(), "staff-1", "m1", "proj-A")
	require.NoError(t, err)

	assert.Equal(t, "REF-m1-1700000000123", link.ReferralCode)
	assert.Equal(t, "https://x.test/go?ref=REF-m1-1700000000123&project=proj-A", link.ReferralLink)
	assert.Equal(t, "m1", link.MemberID)
	assert.Equal(t, "staff-1", link.UserID)
	assert.Equal(t, "Project A", link.ProjectName)
	assert.Equal(t, at.UTC(), link.CreatedAt)
	assert.False(t, link.ID.IsZero())
	assert.Equal(t, 1, links.count())
}

func TestGenerateLink_NewLinkHasZeroStats(t *testing.T) {
	e := New(newFakeMembers(member("m1")), newFakeLinks(), nil)
	ctx := context.Background()

	link, err := e.GenerateLink(ctx, snapshot(), "m1", "m1", "proj-A")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.ReferralLink, "https://x.test/go?ref=REF-m1-"))
	assert.True(t, strings.HasSuffix(link.ReferralLink, "&project=proj-A"))

	stats, err := e.ComputeStats(ctx, link.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, Stats{Code: link.ReferralCode}, stats)
}

func TestComputeStats_CountsAttributedMembers(t *testing.T) {
	members := newFakeMembers(member("m1"))
	e := New(members, newFakeLinks(), nil)
	ctx := context.Background()

	link, err := e.GenerateLink(ctx, snapshot(), "m1", "m1", "proj-A")
	require.NoError(t, err)

	m2 := member("m2")
	m2.ReferredBy = link.ReferralCode
	members.add(m2)

	stats, err := e.ComputeStats(ctx, link.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.SignUps)
	assert.Equal(t, int64(2), stats.Clicks)
	assert.Equal(t, int64(10), stats.Rewards)
}

func TestComputeStats_ExactMatchOnly(t *testing.T) {
	a, b, c := member("a"), member("b"), member("c")
	a.ReferredBy = "REF-x-1"
	b.ReferredBy = "REF-x-1"
	c.ReferredBy = "REF-x-10"
	e := New(newFakeMembers(a, b, c), newFakeLinks(), nil)

	stats, err := e.ComputeStats(context.Background(), "REF-x-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.SignUps)

	stats, err = e.ComputeStats(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Zero(t, stats.SignUps)
	assert.Zero(t, stats.Clicks)
	assert.Zero(t, stats.Rewards)
}

func TestComputeStats_Errors(t *testing.T) {
	members := newFakeMembers()
	e := New(members, newFakeLinks(), nil)

	_, err := e.ComputeStats(context.Background(), "  ")
	assert.True(t, apperr.IsValidation(err))

	members.failCnt = errors.New("connection reset")
	_, err = e.ComputeStats(context.Background(), "REF-a-1")
	assert.True(t, apperr.IsStore(err))
}

func TestGenerateLink_UnknownProject(t *testing.T) {
	links := newFakeLinks()
	e := New(newFakeMembers(member("m1")), links, nil)

	_, err := e.GenerateLink(context.Background(), snapshot(), "m1", "m1", "proj-missing")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, links.count())
}

func TestGenerateLink_Validation(t *testing.T) {
	staff := models.Member{ID: "s1", Role: models.RoleEmployee}
	tests := []struct {
		name      string
		memberID  string
		projectID string
		notFound  bool
	}{
		{"missing member id", "", "proj-A", false},
		{"missing project id", "m1", " ", false},
		{"unknown member", "ghost", "proj-A", true},
		{"not a member role", "s1", "proj-A", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			links := newFakeLinks()
			e := New(newFakeMembers(member("m1"), staff), links, nil)
			_, err := e.GenerateLink(context.Background(), snapshot(), "x", tc.memberID, tc.projectID)
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tc.notFound, apperr.IsNotFound(err))
			assert.Zero(t, links.count())
		})
	}
}

func TestGenerateLink_StoreFailures(t *testing.T) {
	members := newFakeMembers(member("m1"))
	links := newFakeLinks()
	e := New(members, links, nil)

	links.failIns = errors.New("write concern timeout")
	_, err := e.GenerateLink(context.Background(), snapshot(), "m1", "m1", "proj-A")
	assert.True(t, apperr.IsStore(err))

	links.failIns = nil
	members.failGet = errors.New("server selection timeout")
	_, err = e.GenerateLink(context.Background(), snapshot(), "m1", "m1", "proj-A")
	assert.True(t, apperr.IsStore(err))
	assert.Zero(t, links.count())
}

func TestGenerateLink_ExistingQueryString(t *testing.T) {
	e := New(newFakeMembers(member("m1")), newFakeLinks(), nil, WithClock(fixedClock(time.UnixMilli(42))))

	link, err := e.GenerateLink(context.Background(), snapshot(), "m1", "m1", "proj-Q")
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/land?src=mail&ref=REF-m1-42&project=proj-Q", link.ReferralLink)
}

func TestGenerateLink_CodesUniqueUnderFrozenClock(t *testing.T) {
	links := newFakeLinks()
	e := New(newFakeMembers(member("m1")), links, nil, WithClock(fixedClock(time.UnixMilli(1000))))

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.GenerateLink(context.Background(), snapshot(), "m1", "m1", "proj-A")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, n, links.count())
}

func TestStampClock_MonotonicWhenWallClockStepsBack(t *testing.T) {
	times := []int64{500, 400, 400, 900}
	i := 0
	c := newStampClock(func() time.Time {
		t := time.UnixMilli(times[i])
		i++
		return t
	})
	got := []int64{c.next(), c.next(), c.next(), c.next()}
	assert.Equal(t, []int64{500, 501, 502, 900}, got)
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base, code, project, want string
	}{
		{"https://x.test/go", "REF-m1-1", "p", "https://x.test/go?ref=REF-m1-1&project=p"},
		{"https://x.test/go?a=1", "REF-m1-1", "p", "https://x.test/go?a=1&ref=REF-m1-1&project=p"},
		{"https://x.test/go?", "REF-m1-1", "p", "https://x.test/go?ref=REF-m1-1&project=p"},
		{"https://x.test/go", "REF-a b-1", "p&q", "https://x.test/go?ref=REF-a+b-1&project=p%26q"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BuildURL(tc.base, tc.code, tc.project))
	}
}

func TestReferralsAndLinkListings(t *testing.T) {
	joined := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r1 := member("r1")
	r1.ReferredBy = "REF-m1-1"
	r1.JoinDate = &joined
	r2 := member("r2")
	r2.ReferredBy = "REF-m1-1"
	r2.CreatedAt = joined.Add(time.Hour)

	links := newFakeLinks()
	e := New(newFakeMembers(member("m1"), member("m9"), r1, r2), links, nil)
	ctx := context.Background()

	refs, err := e.Referrals(ctx, "REF-m1-1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	for _, r := range refs {
		require.NotNil(t, r.JoinedAt)
	}

	_, err = e.GenerateLink(ctx, snapshot(), "staff", "m1", "proj-A")
	require.NoError(t, err)
	_, err = e.GenerateLink(ctx, snapshot(), "staff", "m9", "proj-A")
	require.NoError(t, err)
	_, err = e.GenerateLink(ctx, snapshot(), "other", "m1", "proj-Q")
	require.NoError(t, err)

	byCreator, err := e.LinksForCreator(ctx, "staff")
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)

	byMember, err := e.LinksForMember(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, byMember, 2)
	assert.Equal(t, "proj-Q", byMember[0].ProjectID)

	_, err = e.LinksForMember(ctx, "")
	assert.True(t, apperr.IsValidation(err))
}
