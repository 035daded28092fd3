package rewards

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/progression"
	"civicreward/internal/services/scoring"
	"civicreward/internal/utils/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event notification.Event) {
	m.Called(ctx, event)
}

func ofKind(kind notification.Kind) interface{} {
	return mock.MatchedBy(func(e notification.Event) bool { return e.Kind == kind })
}

func newTestService(notifier notification.Notifier) (*service, repositories.Store) {
	store := repositories.NewMemoryStore()
	evaluator := progression.NewEvaluator(progression.DefaultCatalog())
	svc := NewService(store, evaluator, nil, nil, notifier).(*service)

	// strictly increasing clock so newest-first ordering is deterministic
	var mu sync.Mutex
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store
}

func record(t *testing.T, svc Service, userID string, typ models.ContributionType) *RecordResult {
	t.Helper()
	res, err := svc.Record(context.Background(), RecordRequest{UserID: userID, Type: typ})
	require.NoError(t, err)
	return res
}

func TestRecord_FirstProposalLevelsUp(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, ofKind(notification.KindLevelUp)).Return().Once()
	notifier.On("Notify", mock.Anything, ofKind(notification.KindBadgeUnlocked)).Return().Once()

	svc, store := newTestService(notifier)
	res, err := svc.Record(context.Background(), RecordRequest{
		UserID:          "u1",
		Type:            models.ContributionProposal,
		RelatedEntityID: "proposal-42",
		RegionID:        "ouaga",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), res.PointsAwarded)
	assert.Equal(t, int64(20), res.TotalPoints)
	assert.True(t, res.Progression.LevelUp())
	assert.Equal(t, 1, res.Progression.OldLevelID)
	assert.Equal(t, 2, res.Progression.NewLevel.LevelID)
	assert.Equal(t, int64(0), res.Progression.OldTotal)
	require.Len(t, res.Progression.Unlocked, 1)
	assert.Equal(t, "first_contribution", res.Progression.Unlocked[0].Code)
	require.NotNil(t, res.Contribution.RelatedEntityID)
	assert.Equal(t, "proposal-42", *res.Contribution.RelatedEntityID)

	user, err := store.Rewards().GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), user.TotalPoints)
	assert.Equal(t, 2, user.CurrentLevelID)
	assert.Equal(t, "ouaga", user.RegionID)
	assert.True(t, user.Badges.Has("first_contribution"))
	notifier.AssertExpectations(t)
}

func TestRecord_MultiLevelJump(t *testing.T) {
	svc, _ := newTestService(nil)
	res, err := svc.Record(context.Background(), RecordRequest{
		UserID:   "u1",
		Type:     models.ContributionReview,
		Override: &Override{AdminID: "admin-1", Reason: "city award", Points: 800},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Progression.NewLevel.LevelID)
	assert.True(t, res.Progression.LevelUp())
}

func TestRecord_UnknownTypeRejected(t *testing.T) {
	svc, store := newTestService(nil)
	_, err := svc.Record(context.Background(), RecordRequest{UserID: "u1", Type: "graffiti"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidContributionType)

	_, err = store.Rewards().GetUser(context.Background(), "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecord_ScoringBonuses(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	res, err := svc.Record(ctx, RecordRequest{
		UserID:  "u1",
		Type:    models.ContributionReview,
		Details: models.JSON{models.DetailCharacterCount: float64(250)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.PointsAwarded)

	res, err = svc.Record(ctx, RecordRequest{
		UserID:  "u1",
		Type:    models.ContributionPhoto,
		Details: models.JSON{models.DetailQuality: "high"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.PointsAwarded)
	assert.Equal(t, int64(28), res.TotalPoints)
}

func TestRecord_Override(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	invalid := []*Override{
		{AdminID: "", Reason: "r", Points: 10},
		{AdminID: "a", Reason: " ", Points: 10},
		{AdminID: "a", Reason: "r", Points: 0},
		{AdminID: "a", Reason: "r", Points: -5},
	}
	for _, o := range invalid {
		_, err := svc.Record(ctx, RecordRequest{UserID: "u1", Type: models.ContributionReview, Override: o})
		assert.ErrorIs(t, err, apperrors.ErrInvalidOverride)
	}

	res, err := svc.Record(ctx, RecordRequest{
		UserID:   "u1",
		Type:     models.ContributionReview,
		Override: &Override{AdminID: "admin-1", Reason: "festival volunteer", Points: 250},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.PointsAwarded)

	details := res.Contribution.Details
	assert.True(t, details.Bool(models.DetailManualAward))
	assert.Equal(t, "admin-1", details.String(models.DetailAdminID))
	assert.Equal(t, "festival volunteer", details.String(models.DetailReason))

	replayed, err := scoring.PointsFor(res.Contribution.Type, details)
	require.NoError(t, err)
	assert.Equal(t, res.PointsAwarded, replayed)
}

func TestRecord_ClientCannotForgeOverride(t *testing.T) {
	svc, _ := newTestService(nil)
	res, err := svc.Record(context.Background(), RecordRequest{
		UserID: "u1",
		Type:   models.ContributionReview,
		Details: models.JSON{
			models.DetailManualAward:  true,
			models.DetailCustomPoints: float64(1000),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.PointsAwarded)
	assert.False(t, res.Contribution.Details.Bool(models.DetailManualAward))
}

func TestRecord_ConcurrentAwardsAreNotLost(t *testing.T) {
	svc, store := newTestService(nil)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(context.Background(), RecordRequest{UserID: "u1", Type: models.ContributionReview})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := store.Rewards().GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(n*10), user.TotalPoints)

	_, total, err := store.Rewards().ListContributions(context.Background(), "u1", repositories.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(n), total)

	// every threshold crossed by the concurrent awards is reflected exactly once
	assert.Equal(t, 4, user.CurrentLevelID)
	assert.True(t, user.Badges.Has("reviewer_10"))
	assert.True(t, user.Badges.Has("points_100"))
}

func TestRecheckBadges_Idempotent(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		record(t, svc, "u1", models.ContributionProposal)
	}

	delta, err := svc.RecheckBadges(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, delta.Empty())

	delta, err = svc.RecheckBadges(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, delta.Empty())

	_, err = svc.RecheckBadges(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGrantBadge(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, ofKind(notification.KindBadgeUnlocked)).Return().Once()

	svc, store := newTestService(notifier)
	ctx := context.Background()

	delta, err := svc.GrantBadge(ctx, "u1", "pioneer")
	require.NoError(t, err)
	require.Len(t, delta.Unlocked, 1)
	assert.Equal(t, "pioneer", delta.Unlocked[0].Code)

	delta, err = svc.GrantBadge(ctx, "u1", "pioneer")
	require.NoError(t, err)
	assert.True(t, delta.Empty())

	_, err = svc.GrantBadge(ctx, "u1", "points_100")
	assert.ErrorIs(t, err, apperrors.ErrBadgeNotGrantable)

	_, err = svc.GrantBadge(ctx, "u1", "unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	user, err := store.Rewards().GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, user.Badges.Has("pioneer"))
	assert.Equal(t, int64(0), user.TotalPoints)
	notifier.AssertExpectations(t)
}

func TestGetUserRewards(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	empty, err := svc.GetUserRewards(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalPoints)
	assert.Equal(t, 1, empty.CurrentLevel.LevelID)
	require.NotNil(t, empty.NextLevel)
	assert.Equal(t, 2, empty.NextLevel.LevelID)
	assert.Equal(t, int64(20), empty.PointsToNextLevel)
	assert.Equal(t, 0, empty.ProgressPercentage)
	assert.Nil(t, empty.Rank)
	assert.Empty(t, empty.Badges)

	for i := 0; i < 5; i++ {
		record(t, svc, "u1", models.ContributionProposal)
	}
	record(t, svc, "u1", models.ContributionReview)
	record(t, svc, "u2", models.ContributionReview)

	profile, err := svc.GetUserRewards(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(110), profile.TotalPoints)
	assert.Equal(t, int64(110), profile.ExchangeablePoints)
	assert.Equal(t, 3, profile.CurrentLevel.LevelID)
	require.NotNil(t, profile.NextLevel)
	assert.Equal(t, 4, profile.NextLevel.LevelID)
	assert.Equal(t, int64(190), profile.PointsToNextLevel)
	assert.Equal(t, 5, profile.ProgressPercentage)
	require.NotNil(t, profile.Rank)
	assert.Equal(t, 1, *profile.Rank)

	codes := make([]string, 0, len(profile.Badges))
	for _, b := range profile.Badges {
		codes = append(codes, b.Code)
	}
	assert.Equal(t, []string{"first_contribution", "points_100", "proposer_5"}, codes)
	assert.Equal(t, "Centurion", profile.Badges[1].Name)

	second, err := svc.GetUserRewards(ctx, "u2")
	require.NoError(t, err)
	require.NotNil(t, second.Rank)
	assert.Equal(t, 2, *second.Rank)
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		total, current, next int64
		want                 int
	}{
		{0, 0, 20, 0},
		{10, 0, 20, 50},
		{110, 100, 300, 5},
		{299, 100, 300, 100},
		{298, 100, 300, 99},
		{400, 100, 300, 100},
		{50, 100, 100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProgressPercentage(tt.total, tt.current, tt.next), "%d in [%d,%d)", tt.total, tt.current, tt.next)
	}
}

func TestHistoryAndStats(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	record(t, svc, "u1", models.ContributionReview)
	record(t, svc, "u1", models.ContributionPhoto)
	record(t, svc, "u1", models.ContributionReport)

	page, err := svc.History(ctx, "u1", pagination.New(1, 2, DefaultHistoryLimit, MaxHistoryLimit))
	require.NoError(t, err)
	require.Len(t, page.Contributions, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, models.ContributionReport, page.Contributions[0].Type)
	assert.Equal(t, models.ContributionPhoto, page.Contributions[1].Type)

	page, err = svc.History(ctx, "u1", pagination.New(2, 2, DefaultHistoryLimit, MaxHistoryLimit))
	require.NoError(t, err)
	require.Len(t, page.Contributions, 1)
	assert.Equal(t, models.ContributionReview, page.Contributions[0].Type)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalContributions)
	assert.Equal(t, int64(23), stats.TotalPointsEarned)
	assert.Equal(t, int64(1), stats.ContributionsByType[models.ContributionPhoto])
	assert.NotNil(t, stats.LastContributionDate)

	global, err := svc.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), global.UsersWithPoints)
	assert.Equal(t, int64(23), global.TotalPointsAwarded)
	assert.Equal(t, int64(3), global.TotalContributions)
	assert.Equal(t, "0.00", global.TotalAmountExchanged)
	assert.Zero(t, global.PendingWithdrawals)
}

func TestCatalogListings(t *testing.T) {
	svc, _ := newTestService(nil)

	levels := svc.Levels()
	require.Len(t, levels, 6)
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1].LevelID, levels[i].LevelID)
	}

	badges := svc.Badges()
	require.NotEmpty(t, badges)
	for i := 1; i < len(badges); i++ {
		assert.Less(t, badges[i-1].Code, badges[i].Code)
	}
}
