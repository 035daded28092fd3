package models

import "time"

// LeaderboardEntry is one ranked row of the points leaderboard.
type LeaderboardEntry struct {
	Rank               int        `json:"rank"`
	UserID             string     `json:"user_id"`
	RegionID           string     `json:"region_id,omitempty"`
	TotalPoints        int64      `json:"total_points"`
	CurrentLevelID     int        `json:"current_level_id"`
	BadgeCount         int        `json:"badge_count"`
	LastContributionAt *time.Time `json:"last_contribution_at,omitempty"`
}

// RewardStats is the staff-facing summary of the reward system.
type RewardStats struct {
	UsersWithPoints      int64  `json:"users_with_points"`
	TotalPointsAwarded   int64  `json:"total_points_awarded"`
	TotalContributions   int64  `json:"total_contributions"`
	TotalPointsExchanged int64  `json:"total_points_exchanged"`
	TotalAmountExchanged string `json:"total_amount_exchanged"`
	PendingWithdrawals   int64  `json:"pending_withdrawals"`
}
