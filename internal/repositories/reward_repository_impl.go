package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{
		db: db,
	}
}

// EnsureUser creates the reward row on first sight and keeps the region current.
func (r *rewardRepository) EnsureUser(ctx context.Context, userID, regionID string) error {
	user := models.User{
		ID:             userID,
		RegionID:       regionID,
		CurrentLevelID: 1,
		Badges:         models.BadgeSet{},
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	if regionID == "" {
		return nil
	}
	err = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND region_id IS DISTINCT FROM ?", userID, regionID).
		Update("region_id", regionID).Error
	if err != nil {
		return fmt.Errorf("failed to update user region: %w", err)
	}
	return nil
}

func (r *rewardRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// IncrementPoints adds delta in a single statement and returns the new total.
func (r *rewardRepository) IncrementPoints(ctx context.Context, userID string, delta int64, at time.Time) (int64, error) {
	var user models.User
	result := r.db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_points"}}}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_points":         gorm.Expr("total_points + ?", delta),
			"last_contribution_at": at,
			"updated_at":           at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to increment points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperrors.ErrNotFound
	}
	return user.TotalPoints, nil
}

func (r *rewardRepository) UpdateProgress(ctx context.Context, userID string, levelID int, badges models.BadgeSet, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"current_level_id": levelID,
			"badges":           badges,
			"updated_at":       at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *rewardRepository) GrantBadge(ctx context.Context, userID, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND NOT (? = ANY(COALESCE(granted_badges, '{}')))", userID, code).
		Update("granted_badges", gorm.Expr("array_append(COALESCE(granted_badges, '{}'), ?)", code))
	if result.Error != nil {
		return fmt.Errorf("failed to grant badge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// already granted, or no such user
		if _, err := r.GetUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// DebitExchangeablePoints marks points as spent only when enough remain.
func (r *rewardRepository) DebitExchangeablePoints(ctx context.Context, userID string, points int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND total_points - exchanged_points >= ?", userID, points).
		Update("exchanged_points", gorm.Expr("exchanged_points + ?", points))
	if result.Error != nil {
		return fmt.Errorf("failed to debit points: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsufficientPoints
	}
	return nil
}

func (r *rewardRepository) CreateContribution(ctx context.Context, rec *models.ContributionRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create contribution: %w", err)
	}
	return nil
}

func (r *rewardRepository) ListContributions(ctx context.Context, userID string, opts ListOptions) ([]models.ContributionRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContributionRecord{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contributions: %w", err)
	}

	var records []models.ContributionRecord
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contributions: %w", err)
	}
	return records, total, nil
}

func (r *rewardRepository) ContributionCounts(ctx context.Context, userID string) (map[models.ContributionType]int64, error) {
	var rows []struct {
		ContributionType models.ContributionType
		Count            int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ContributionRecord{}).
		Select("contribution_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("contribution_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count contributions: %w", err)
	}

	counts := make(map[models.ContributionType]int64, len(rows))
	for _, row := range rows {
		counts[row.ContributionType] = row.Count
	}
	return counts, nil
}

func (r *rewardRepository) ContributionStats(ctx context.Context, userID string) (*models.ContributionStats, error) {
	var agg struct {
		TotalContributions int64
		TotalPointsEarned  int64
		LastContribution   *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.ContributionRecord{}).
		Select("COUNT(*) AS total_contributions, COALESCE(SUM(points_awarded), 0) AS total_points_earned, MAX(created_at) AS last_contribution").
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution stats: %w", err)
	}

	counts, err := r.ContributionCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.ContributionStats{
		UserID:               userID,
		TotalContributions:   agg.TotalContributions,
		TotalPointsEarned:    agg.TotalPointsEarned,
		ContributionsByType:  counts,
		LastContributionDate: agg.LastContribution,
	}, nil
}

func (r *rewardRepository) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("total_points > 0")
	if q.RegionID != "" {
		query = query.Where("region_id = ?", q.RegionID)
	}

	var users []models.User
	err := query.
		Order("total_points DESC").
		Order("last_contribution_at DESC NULLS LAST").
		Order("id ASC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}

// CountAhead returns how many users hold strictly more than points.
func (r *rewardRepository) CountAhead(ctx context.Context, regionID string, points int64) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("total_points > ?", points)
	if regionID != "" {
		query = query.Where("region_id = ?", regionID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ranking: %w", err)
	}
	return count, nil
}

func (r *rewardRepository) ListLevels(ctx context.Context) ([]models.Level, error) {
	var levels []models.Level
	if err := r.db.WithContext(ctx).Order("level_id ASC").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return levels, nil
}

func (r *rewardRepository) ListBadges(ctx context.Context, activeOnly bool) ([]models.Badge, error) {
	query := r.db.WithContext(ctx).Model(&models.Badge{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var badges []models.Badge
	if err := query.Order("code ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (r *rewardRepository) UpsertLevels(ctx context.Context, levels []models.Level) error {
	if len(levels) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "level_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "points_required", "description", "badge_icon"}),
		}).
		Create(&levels).Error
	if err != nil {
		return fmt.Errorf("failed to upsert levels: %w", err)
	}
	return nil
}

func (r *rewardRepository) UpsertBadges(ctx context.Context, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			UpdateAll: true,
		}).
		Create(&badges).Error
	if err != nil {
		return fmt.Errorf("failed to upsert badges: %w", err)
	}
	return nil
}

func (r *rewardRepository) Totals(ctx context.Context) (*models.RewardStats, error) {
	var stats models.RewardStats
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("COUNT(*) FILTER (WHERE total_points > 0) AS users_with_points, COALESCE(SUM(total_points), 0) AS total_points_awarded").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get reward totals: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&models.ContributionRecord{}).Count(&stats.TotalContributions).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributions: %w", err)
	}
	return &stats, nil
}
