package models

import (
	"time"

	"github.com/lib/pq"
)

// User holds the reward columns of a platform user. Identity, profile and
// role data live with the identity collaborator; this row is created lazily
// the first time a user earns points.
type User struct {
	ID                 string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	RegionID           string         `gorm:"type:varchar(64);index" json:"region_id,omitempty"`
	TotalPoints        int64          `gorm:"not null;default:0;index" json:"total_points"`
	ExchangedPoints    int64          `gorm:"not null;default:0" json:"exchanged_points"`
	CurrentLevelID     int            `gorm:"not null;default:1" json:"current_level_id"`
	Badges             BadgeSet       `gorm:"type:jsonb;not null;default:'{}'" json:"badges"`
	GrantedBadges      pq.StringArray `gorm:"type:text[]" json:"granted_badges,omitempty"`
	LastContributionAt *time.Time     `json:"last_contribution_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ExchangeablePoints is the part of TotalPoints not yet converted to currency.
func (u *User) ExchangeablePoints() int64 {
	return u.TotalPoints - u.ExchangedPoints
}

// HasGrant reports whether staff granted the manual badge code.
func (u *User) HasGrant(code string) bool {
	for _, g := range u.GrantedBadges {
		if g == code {
			return true
		}
	}
	return false
}
