package progression

import (
	"fmt"
	"sort"

	"civicreward/internal/models"
)

// Catalog is the ordered level ladder plus the badge definitions.
// It is immutable once built.
type Catalog struct {
	levels []models.Level
	badges []models.Badge
}

// NewCatalog validates and orders levels and badges. Levels must start at
// zero points and their thresholds must strictly increase with level id.
func NewCatalog(levels []models.Level, badges []models.Badge) (*Catalog, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("catalog needs at least one level")
	}

	ordered := append([]models.Level(nil), levels...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].LevelID < ordered[j].LevelID })
	if ordered[0].PointsRequired != 0 {
		return nil, fmt.Errorf("first level %d must require 0 points", ordered[0].LevelID)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].PointsRequired <= ordered[i-1].PointsRequired {
			return nil, fmt.Errorf("level %d threshold %d does not exceed level %d threshold %d",
				ordered[i].LevelID, ordered[i].PointsRequired, ordered[i-1].LevelID, ordered[i-1].PointsRequired)
		}
	}

	sortedBadges := append([]models.Badge(nil), badges...)
	sort.Slice(sortedBadges, func(i, j int) bool { return sortedBadges[i].Code < sortedBadges[j].Code })
	for _, b := range sortedBadges {
		if err := validateBadge(b); err != nil {
			return nil, err
		}
	}

	return &Catalog{levels: ordered, badges: sortedBadges}, nil
}

func validateBadge(b models.Badge) error {
	switch b.Kind {
	case models.RuleCounterThreshold:
		switch b.Counter {
		case models.CounterTotalPoints, models.CounterTotalContributions, models.CounterDistinctTypes:
		default:
			return fmt.Errorf("badge %s: unknown counter %q", b.Code, b.Counter)
		}
	case models.RuleTypeCount:
		if !b.ContributionType.Valid() {
			return fmt.Errorf("badge %s: unknown contribution type %q", b.Code, b.ContributionType)
		}
	case models.RuleManual:
	default:
		return fmt.Errorf("badge %s: unknown rule kind %q", b.Code, b.Kind)
	}
	return nil
}

// Levels returns the ladder ordered by level id.
func (c *Catalog) Levels() []models.Level {
	return append([]models.Level(nil), c.levels...)
}

// Badges returns every badge ordered by code.
func (c *Catalog) Badges() []models.Badge {
	return append([]models.Badge(nil), c.badges...)
}

// ActiveBadges returns the active badges ordered by code.
func (c *Catalog) ActiveBadges() []models.Badge {
	var active []models.Badge
	for _, b := range c.badges {
		if b.Active {
			active = append(active, b)
		}
	}
	return active
}

func (c *Catalog) Badge(code string) (models.Badge, bool) {
	for _, b := range c.badges {
		if b.Code == code {
			return b, true
		}
	}
	return models.Badge{}, false
}

// LevelFor returns the highest level whose threshold is covered by total.
func (c *Catalog) LevelFor(total int64) models.Level {
	current := c.levels[0]
	for _, l := range c.levels {
		if l.PointsRequired > total {
			break
		}
		current = l
	}
	return current
}

// Level looks a level up by id.
func (c *Catalog) Level(id int) (models.Level, bool) {
	for _, l := range c.levels {
		if l.LevelID == id {
			return l, true
		}
	}
	return models.Level{}, false
}

// NextLevel returns the level after id, or false at the top of the ladder.
func (c *Catalog) NextLevel(id int) (models.Level, bool) {
	for i, l := range c.levels {
		if l.LevelID == id && i+1 < len(c.levels) {
			return c.levels[i+1], true
		}
	}
	return models.Level{}, false
}
