package progression

import (
	"time"

	"civicreward/internal/models"
)

// State is a user's aggregate progress at one instant.
type State struct {
	OldTotal       int64
	TotalPoints    int64
	CurrentLevelID int
	Badges         models.BadgeSet
	GrantedBadges  []string
	Counts         map[models.ContributionType]int64
}

// UnlockedBadge is a badge earned by the evaluated state.
type UnlockedBadge struct {
	Code       string    `json:"badge_code"`
	Name       string    `json:"badge_name"`
	Icon       string    `json:"badge_icon"`
	UnlockedAt time.Time `json:"earned_at"`
}

// Delta is what changed between the stored progress and the evaluated state.
type Delta struct {
	OldTotal     int64           `json:"old_total"`
	NewTotal     int64           `json:"new_total"`
	OldLevelID   int             `json:"old_level_id"`
	NewLevel     models.Level    `json:"new_level"`
	LevelChanged bool            `json:"level_changed"`
	Unlocked     []UnlockedBadge `json:"unlocked_badges"`
}

// LevelUp reports a move to a higher level.
func (d Delta) LevelUp() bool {
	return d.LevelChanged && d.NewLevel.LevelID > d.OldLevelID
}

func (d Delta) Empty() bool {
	return !d.LevelChanged && len(d.Unlocked) == 0
}

// Apply returns the badge set after the delta's unlocks.
func (d Delta) Apply(badges models.BadgeSet) models.BadgeSet {
	out := badges.Clone()
	for _, u := range d.Unlocked {
		out[u.Code] = u.UnlockedAt
	}
	return out
}

// Evaluator computes progression deltas against a catalog.
type Evaluator struct {
	catalog *Catalog
}

func NewEvaluator(catalog *Catalog) *Evaluator {
	if catalog == nil {
		panic("catalog is required")
	}
	return &Evaluator{catalog: catalog}
}

func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// Evaluate is side-effect free. Evaluating a state that already carries the
// delta's level and badges yields an empty delta.
func (e *Evaluator) Evaluate(state State, now time.Time) Delta {
	level := e.catalog.LevelFor(state.TotalPoints)
	delta := Delta{
		OldTotal:     state.OldTotal,
		NewTotal:     state.TotalPoints,
		OldLevelID:   state.CurrentLevelID,
		NewLevel:     level,
		LevelChanged: level.LevelID != state.CurrentLevelID,
	}

	for _, badge := range e.catalog.ActiveBadges() {
		if state.Badges.Has(badge.Code) {
			continue
		}
		if qualifies(badge, state) {
			delta.Unlocked = append(delta.Unlocked, UnlockedBadge{
				Code:       badge.Code,
				Name:       badge.Name,
				Icon:       badge.Icon,
				UnlockedAt: now,
			})
		}
	}
	return delta
}

func qualifies(b models.Badge, state State) bool {
	switch b.Kind {
	case models.RuleCounterThreshold:
		return counter(b.Counter, state) >= b.Threshold
	case models.RuleTypeCount:
		return state.Counts[b.ContributionType] >= b.Threshold
	case models.RuleManual:
		for _, code := range state.GrantedBadges {
			if code == b.Code {
				return true
			}
		}
	}
	return false
}

func counter(name string, state State) int64 {
	switch name {
	case models.CounterTotalPoints:
		return state.TotalPoints
	case models.CounterTotalContributions:
		var total int64
		for _, n := range state.Counts {
			total += n
		}
		return total
	case models.CounterDistinctTypes:
		var distinct int64
		for _, n := range state.Counts {
			if n > 0 {
				distinct++
			}
		}
		return distinct
	}
	return 0
}
