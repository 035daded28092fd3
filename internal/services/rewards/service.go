// Package rewards records contributions in the points ledger and keeps each
// user's level and badges in step with it.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/services/leaderboard"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/progression"
	"civicreward/internal/services/scoring"
	"civicreward/internal/utils/pagination"

	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 50
	ProfileCacheTTL     = 5 * time.Minute
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*RecordResult, error)
	GetUserRewards(ctx context.Context, userID string) (*Profile, error)
	History(ctx context.Context, userID string, page pagination.Pagination) (*HistoryPage, error)
	Stats(ctx context.Context, userID string) (*models.ContributionStats, error)
	Levels() []models.Level
	Badges() []models.Badge
	RecheckBadges(ctx context.Context, userID string) (*progression.Delta, error)
	GrantBadge(ctx context.Context, userID, code string) (*progression.Delta, error)
	GlobalStats(ctx context.Context) (*models.RewardStats, error)
}

type service struct {
	store       repositories.Store
	evaluator   *progression.Evaluator
	leaderboard leaderboard.Service
	cache       cache.Cache
	notifier    notification.Notifier
	now         func() time.Time
}

func NewService(
	store repositories.Store,
	evaluator *progression.Evaluator,
	board leaderboard.Service,
	c cache.Cache,
	notifier notification.Notifier,
) Service {
	if store == nil {
		panic("store is required")
	}
	if evaluator == nil {
		panic("evaluator is required")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if board == nil {
		board = leaderboard.NewService(store.Rewards(), c, leaderboard.DefaultCacheTTL)
	}
	if notifier == nil {
		notifier = notification.Discard{}
	}
	return &service{
		store:       store,
		evaluator:   evaluator,
		leaderboard: board,
		cache:       c,
		notifier:    notifier,
		now:         time.Now,
	}
}

// ledgerDetails copies the caller's details, writing the override fields when
// one is given and stripping them otherwise so only the override path can
// set an award.
func ledgerDetails(req RecordRequest) (models.JSON, error) {
	details := models.NewJSON(req.Details)
	delete(details, models.DetailManualAward)
	delete(details, models.DetailCustomPoints)
	delete(details, models.DetailAdminID)
	delete(details, models.DetailReason)

	if o := req.Override; o != nil {
		if strings.TrimSpace(o.AdminID) == "" || strings.TrimSpace(o.Reason) == "" || o.Points <= 0 {
			return nil, apperrors.ErrInvalidOverride
		}
		details[models.DetailManualAward] = true
		details[models.DetailAdminID] = o.AdminID
		details[models.DetailReason] = o.Reason
		details[models.DetailCustomPoints] = o.Points
	}
	return details, nil
}

func (s *service) Record(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", apperrors.ErrInvalidInput)
	}
	details, err := ledgerDetails(req)
	if err != nil {
		return nil, err
	}
	points, err := scoring.PointsFor(req.Type, details)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &models.ContributionRecord{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Type:          req.Type,
		PointsAwarded: points,
		Details:       details,
		CreatedAt:     now,
	}
	if req.RelatedEntityID != "" {
		related := req.RelatedEntityID
		rec.RelatedEntityID = &related
	}

	result := &RecordResult{Contribution: rec, PointsAwarded: points}
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		repo := tx.Rewards()
		if err := repo.EnsureUser(ctx, req.UserID, req.RegionID); err != nil {
			return err
		}
		// the increment locks the user row until commit, so the progress
		// read below cannot interleave with another award for this user
		total, err := repo.IncrementPoints(ctx, req.UserID, points, now)
		if err != nil {
			return err
		}
		if err := repo.CreateContribution(ctx, rec); err != nil {
			return err
		}

		delta, err := s.progress(ctx, tx, req.UserID, total-points, now)
		if err != nil {
			return err
		}
		result.TotalPoints = total
		result.Progression = delta
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Override != nil {
		log.Printf("🏅 Manual award of %d points to %s by %s: %s", points, req.UserID, req.Override.AdminID, req.Override.Reason)
	} else {
		log.Printf("⭐ %s earned %d points for %s (total %d)", req.UserID, points, req.Type, result.TotalPoints)
	}
	s.afterProgress(ctx, req.UserID, result.Progression)
	return result, nil
}

// progress evaluates the user's stored state inside tx and persists any
// level or badge change.
func (s *service) progress(ctx context.Context, tx repositories.Store, userID string, oldTotal int64, now time.Time) (progression.Delta, error) {
	repo := tx.Rewards()
	user, err := repo.GetUser(ctx, userID)
	if err != nil {
		return progression.Delta{}, err
	}
	counts, err := repo.ContributionCounts(ctx, userID)
	if err != nil {
		return progression.Delta{}, err
	}

	delta := s.evaluator.Evaluate(progression.State{
		OldTotal:       oldTotal,
		TotalPoints:    user.TotalPoints,
		CurrentLevelID: user.CurrentLevelID,
		Badges:         user.Badges,
		GrantedBadges:  user.GrantedBadges,
		Counts:         counts,
	}, now)
	if delta.Empty() {
		return delta, nil
	}

	if err := repo.UpdateProgress(ctx, userID, delta.NewLevel.LevelID, delta.Apply(user.Badges), now); err != nil {
		return progression.Delta{}, err
	}
	return delta, nil
}

// afterProgress runs the post-commit side effects of a progression change.
func (s *service) afterProgress(ctx context.Context, userID string, delta progression.Delta) {
	if err := s.cache.Delete(ctx, cache.RewardsKey(userID)); err != nil {
		log.Printf("⚠️ Rewards cache invalidation failed for %s: %v", userID, err)
	}

	if delta.LevelUp() {
		s.notifier.Notify(ctx, notification.Event{
			Kind:    notification.KindLevelUp,
			Title:   "Level up!",
			Message: fmt.Sprintf("You reached level %s", delta.NewLevel.Name),
			Payload: map[string]interface{}{
				"old_level_id": delta.OldLevelID,
				"new_level_id": delta.NewLevel.LevelID,
				"level_name":   delta.NewLevel.Name,
				"total_points": delta.NewTotal,
			},
			Audience: notification.ToUser(userID),
		})
	}
	for _, b := range delta.Unlocked {
		s.notifier.Notify(ctx, notification.Event{
			Kind:    notification.KindBadgeUnlocked,
			Title:   "New badge unlocked",
			Message: fmt.Sprintf("You earned the %s badge", b.Name),
			Payload: map[string]interface{}{
				"badge_code": b.Code,
				"badge_name": b.Name,
				"badge_icon": b.Icon,
			},
			Audience: notification.ToUser(userID),
		})
	}
}

func (s *service) History(ctx context.Context, userID string, page pagination.Pagination) (*HistoryPage, error) {
	records, total, err := s.store.Rewards().ListContributions(ctx, userID, repositories.ListOptions{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.ContributionRecord{}
	}
	page.Total = total
	return &HistoryPage{Contributions: records, Pagination: page}, nil
}

func (s *service) Stats(ctx context.Context, userID string) (*models.ContributionStats, error) {
	return s.store.Rewards().ContributionStats(ctx, userID)
}

func (s *service) Levels() []models.Level {
	return s.evaluator.Catalog().Levels()
}

func (s *service) Badges() []models.Badge {
	return s.evaluator.Catalog().ActiveBadges()
}

// RecheckBadges re-evaluates a user's stored state. Running it twice on an
// unchanged state unlocks nothing the second time.
func (s *service) RecheckBadges(ctx context.Context, userID string) (*progression.Delta, error) {
	var delta progression.Delta
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		user, err := tx.Rewards().GetUser(ctx, userID)
		if err != nil {
			return err
		}
		delta, err = s.progress(ctx, tx, userID, user.TotalPoints, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterProgress(ctx, userID, delta)
	return &delta, nil
}

// GrantBadge marks a manual badge as granted and unlocks it.
func (s *service) GrantBadge(ctx context.Context, userID, code string) (*progression.Delta, error) {
	badge, ok := s.evaluator.Catalog().Badge(code)
	if !ok {
		return nil, fmt.Errorf("%w: badge %q", apperrors.ErrNotFound, code)
	}
	if badge.Kind != models.RuleManual || !badge.Active {
		return nil, apperrors.ErrBadgeNotGrantable
	}

	var delta progression.Delta
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		repo := tx.Rewards()
		if err := repo.EnsureUser(ctx, userID, ""); err != nil {
			return err
		}
		if err := repo.GrantBadge(ctx, userID, code); err != nil {
			return err
		}
		user, err := repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		delta, err = s.progress(ctx, tx, userID, user.TotalPoints, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎖️ Badge %s granted to %s", code, userID)
	s.afterProgress(ctx, userID, delta)
	return &delta, nil
}

func (s *service) GlobalStats(ctx context.Context) (*models.RewardStats, error) {
	stats, err := s.store.Rewards().Totals(ctx)
	if err != nil {
		return nil, err
	}
	points, amount, err := s.store.Wallets().ExchangeTotals(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.Wallets().CountWithdrawals(ctx, models.WithdrawalStatusPending)
	if err != nil {
		return nil, err
	}

	stats.TotalPointsExchanged = points
	stats.TotalAmountExchanged = amount.StringFixed(2)
	stats.PendingWithdrawals = pending
	return stats, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
