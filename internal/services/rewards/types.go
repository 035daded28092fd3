package rewards

import (
	"civicreward/internal/models"
	"civicreward/internal/services/progression"
	"civicreward/internal/utils/pagination"
)

// Override is a pre-authorized manual award.
type Override struct {
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason"`
	Points  int64  `json:"custom_points"`
}

// RecordRequest is one rewarded action.
type RecordRequest struct {
	UserID          string                  `json:"user_id"`
	Type            models.ContributionType `json:"contribution_type"`
	RelatedEntityID string                  `json:"related_entity_id,omitempty"`
	Details         models.JSON             `json:"details,omitempty"`
	RegionID        string                  `json:"region_id,omitempty"`
	Override        *Override               `json:"-"`
}

// RecordResult is the ledger entry together with the progression it caused.
type RecordResult struct {
	Contribution  *models.ContributionRecord `json:"contribution"`
	PointsAwarded int64                      `json:"points_awarded"`
	TotalPoints   int64                      `json:"total_points"`
	Progression   progression.Delta          `json:"progression"`
}

// Profile is a user's reward standing.
type Profile struct {
	UserID             string                      `json:"user_id"`
	TotalPoints        int64                       `json:"total_points"`
	ExchangeablePoints int64                       `json:"exchangeable_points"`
	CurrentLevel       models.Level                `json:"current_level"`
	NextLevel          *models.Level               `json:"next_level"`
	PointsToNextLevel  int64                       `json:"points_to_next_level"`
	ProgressPercentage int                         `json:"progress_percentage"`
	Badges             []progression.UnlockedBadge `json:"badges"`
	Rank               *int                        `json:"leaderboard_rank"`
}

type HistoryPage struct {
	Contributions []models.ContributionRecord `json:"contributions"`
	Pagination    pagination.Pagination       `json:"pagination"`
}
