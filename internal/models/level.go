package models

// Level is static reference data; PointsRequired strictly increases with LevelID.
type Level struct {
	LevelID        int    `gorm:"primaryKey;autoIncrement:false" json:"level_id"`
	Name           string `gorm:"type:varchar(64);not null" json:"level_name"`
	PointsRequired int64  `gorm:"not null;uniqueIndex" json:"points_required"`
	Description    string `json:"description"`
	BadgeIcon      string `json:"badge_icon"`
}
