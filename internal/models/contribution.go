package models

import "time"

type ContributionType string

const (
	ContributionReview         ContributionType = "review"
	ContributionPhoto          ContributionType = "photo"
	ContributionVideo          ContributionType = "video"
	ContributionHelpfulVote    ContributionType = "helpful_vote"
	ContributionReply          ContributionType = "reply"
	ContributionProposal       ContributionType = "proposal"
	ContributionReport         ContributionType = "report"
	ContributionDetailedReview ContributionType = "detailed_review"
)

// ContributionTypes lists every rewarded action in display order.
var ContributionTypes = []ContributionType{
	ContributionReview,
	ContributionPhoto,
	ContributionVideo,
	ContributionHelpfulVote,
	ContributionReply,
	ContributionProposal,
	ContributionReport,
	ContributionDetailedReview,
}

func (t ContributionType) Valid() bool {
	for _, known := range ContributionTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t ContributionType) String() string {
	return string(t)
}

// Details keys understood by the scoring table and the manual award path.
const (
	DetailCharacterCount = "character_count"
	DetailQuality        = "quality"
	DetailManualAward    = "manual_award"
	DetailAdminID        = "admin_id"
	DetailReason         = "reason"
	DetailCustomPoints   = "custom_points"
)

// ContributionRecord is one immutable ledger entry per rewarded action.
type ContributionRecord struct {
	ID              string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string           `gorm:"type:varchar(64);not null;index:idx_contrib_user_created,priority:1" json:"user_id"`
	Type            ContributionType `gorm:"column:contribution_type;type:varchar(32);not null;index" json:"contribution_type"`
	RelatedEntityID *string          `gorm:"type:varchar(64)" json:"related_entity_id,omitempty"`
	PointsAwarded   int64            `gorm:"not null" json:"points_awarded"`
	Details         JSON             `gorm:"type:jsonb" json:"details"`
	CreatedAt       time.Time        `gorm:"not null;index:idx_contrib_user_created,priority:2" json:"created_at"`
}

// ContributionStats aggregates a user's ledger.
type ContributionStats struct {
	UserID               string                     `json:"user_id"`
	TotalContributions   int64                      `json:"total_contributions"`
	TotalPointsEarned    int64                      `json:"total_points_earned"`
	ContributionsByType  map[ContributionType]int64 `json:"contributions_by_type"`
	LastContributionDate *time.Time                 `json:"last_contribution_date"`
}
