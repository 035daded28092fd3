package models

// BadgeRuleKind selects one of the closed set of unlock predicates.
type BadgeRuleKind string

const (
	// RuleCounterThreshold unlocks when an aggregate counter reaches Threshold.
	RuleCounterThreshold BadgeRuleKind = "counter_threshold"
	// RuleTypeCount unlocks when the user has Threshold contributions of ContributionType.
	RuleTypeCount BadgeRuleKind = "type_count"
	// RuleManual unlocks only after staff grant it.
	RuleManual BadgeRuleKind = "manual"
)

// Counters usable with RuleCounterThreshold.
const (
	CounterTotalPoints        = "total_points"
	CounterTotalContributions = "total_contributions"
	CounterDistinctTypes      = "distinct_types"
)

type Badge struct {
	Code             string           `gorm:"primaryKey;type:varchar(64)" json:"badge_code"`
	Name             string           `gorm:"type:varchar(128);not null" json:"badge_name"`
	Description      string           `json:"description"`
	Icon             string           `json:"badge_icon"`
	Active           bool             `gorm:"not null" json:"is_active"`
	Kind             BadgeRuleKind    `gorm:"type:varchar(32);not null" json:"rule_kind"`
	Counter          string           `gorm:"type:varchar(32)" json:"counter,omitempty"`
	ContributionType ContributionType `gorm:"type:varchar(32)" json:"contribution_type,omitempty"`
	Threshold        int64            `gorm:"not null;default:0" json:"threshold"`
}
