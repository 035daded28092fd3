package repositories

import (
	"context"
	"time"

	"civicreward/internal/models"
)

// ListOptions is a limit/offset window.
type ListOptions struct {
	Limit  int
	Offset int
}

// LeaderboardQuery selects a page of the ranking, optionally for one region.
type LeaderboardQuery struct {
	RegionID string
	Limit    int
	Offset   int
}

// RewardRepository defines the points-side storage operations.
type RewardRepository interface {
	// Users
	EnsureUser(ctx context.Context, userID, regionID string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	IncrementPoints(ctx context.Context, userID string, delta int64, at time.Time) (int64, error)
	UpdateProgress(ctx context.Context, userID string, levelID int, badges models.BadgeSet, at time.Time) error
	GrantBadge(ctx context.Context, userID, code string) error
	DebitExchangeablePoints(ctx context.Context, userID string, points int64) error

	// Contribution ledger
	CreateContribution(ctx context.Context, rec *models.ContributionRecord) error
	ListContributions(ctx context.Context, userID string, opts ListOptions) ([]models.ContributionRecord, int64, error)
	ContributionCounts(ctx context.Context, userID string) (map[models.ContributionType]int64, error)
	ContributionStats(ctx context.Context, userID string) (*models.ContributionStats, error)

	// Ranking
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]models.User, error)
	CountAhead(ctx context.Context, regionID string, points int64) (int64, error)

	// Catalog
	ListLevels(ctx context.Context) ([]models.Level, error)
	ListBadges(ctx context.Context, activeOnly bool) ([]models.Badge, error)
	UpsertLevels(ctx context.Context, levels []models.Level) error
	UpsertBadges(ctx context.Context, badges []models.Badge) error

	// Aggregates
	Totals(ctx context.Context) (*models.RewardStats, error)
}

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Rewards() RewardRepository
	Wallets() WalletRepository
	// ExecuteInTransaction runs fn atomically: either every write made through
	// the Store passed to fn commits, or none does.
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}
