// Package scoring maps a contribution and its details to a point award.
//
// PointsFor is pure: the same type and details always yield the same award,
// so replaying a persisted ledger entry reproduces its points_awarded.
package scoring

import (
	"fmt"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
)

// Bonus rules
const (
	ReviewLengthThreshold = 200
	ReviewLengthBonus     = 10
	HighQualityPhotoBonus = 3
	HighQuality           = "high"
)

var basePoints = map[models.ContributionType]int64{
	models.ContributionReview:         10,
	models.ContributionPhoto:          5,
	models.ContributionVideo:          15,
	models.ContributionHelpfulVote:    1,
	models.ContributionReply:          3,
	models.ContributionProposal:       20,
	models.ContributionReport:         8,
	models.ContributionDetailedReview: 10,
}

// BasePoints returns the award for a type before bonuses.
func BasePoints(t models.ContributionType) (int64, error) {
	points, ok := basePoints[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidContributionType, t)
	}
	return points, nil
}

// PointsFor computes the award for one contribution. Details carrying a
// manual award with custom_points replay that override.
func PointsFor(t models.ContributionType, details models.JSON) (int64, error) {
	points, err := BasePoints(t)
	if err != nil {
		return 0, err
	}

	if details.Bool(models.DetailManualAward) {
		if custom, ok := details.Int(models.DetailCustomPoints); ok {
			return custom, nil
		}
	}

	switch t {
	case models.ContributionReview:
		if chars, ok := details.Int(models.DetailCharacterCount); ok && chars > ReviewLengthThreshold {
			points += ReviewLengthBonus
		}
	case models.ContributionPhoto:
		if details.String(models.DetailQuality) == HighQuality {
			points += HighQualityPhotoBonus
		}
	}
	return points, nil
}
