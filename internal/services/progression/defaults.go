package progression

import "civicreward/internal/models"

func DefaultLevels() []models.Level {
	return []models.Level{
		{LevelID: 1, Name: "Novice", PointsRequired: 0, Description: "Welcome to the community", BadgeIcon: "seedling"},
		{LevelID: 2, Name: "Contributor", PointsRequired: 20, Description: "First steps as a contributor", BadgeIcon: "sprout"},
		{LevelID: 3, Name: "Active Citizen", PointsRequired: 100, Description: "Regular contributor to the city", BadgeIcon: "leaf"},
		{LevelID: 4, Name: "Expert", PointsRequired: 300, Description: "Trusted voice of the neighbourhood", BadgeIcon: "tree"},
		{LevelID: 5, Name: "Ambassador", PointsRequired: 750, Description: "Leads by example", BadgeIcon: "star"},
		{LevelID: 6, Name: "Legend", PointsRequired: 1500, Description: "Pillar of the community", BadgeIcon: "crown"},
	}
}

func DefaultBadges() []models.Badge {
	return []models.Badge{
		{
			Code: "first_contribution", Name: "First Step", Description: "Made a first contribution", Icon: "footprint",
			Active: true, Kind: models.RuleCounterThreshold, Counter: models.CounterTotalContributions, Threshold: 1,
		},
		{
			Code: "points_100", Name: "Centurion", Description: "Earned 100 points", Icon: "medal",
			Active: true, Kind: models.RuleCounterThreshold, Counter: models.CounterTotalPoints, Threshold: 100,
		},
		{
			Code: "points_500", Name: "High Scorer", Description: "Earned 500 points", Icon: "trophy",
			Active: true, Kind: models.RuleCounterThreshold, Counter: models.CounterTotalPoints, Threshold: 500,
		},
		{
			Code: "all_rounder", Name: "All-Rounder", Description: "Contributed in four different ways", Icon: "compass",
			Active: true, Kind: models.RuleCounterThreshold, Counter: models.CounterDistinctTypes, Threshold: 4,
		},
		{
			Code: "reviewer_10", Name: "Critic", Description: "Wrote 10 reviews", Icon: "pen",
			Active: true, Kind: models.RuleTypeCount, ContributionType: models.ContributionReview, Threshold: 10,
		},
		{
			Code: "photographer_10", Name: "Photographer", Description: "Shared 10 photos", Icon: "camera",
			Active: true, Kind: models.RuleTypeCount, ContributionType: models.ContributionPhoto, Threshold: 10,
		},
		{
			Code: "proposer_5", Name: "Visionary", Description: "Submitted 5 proposals", Icon: "bulb",
			Active: true, Kind: models.RuleTypeCount, ContributionType: models.ContributionProposal, Threshold: 5,
		},
		{
			Code: "reporter_5", Name: "Watchdog", Description: "Had 5 reports resolved", Icon: "flag",
			Active: true, Kind: models.RuleTypeCount, ContributionType: models.ContributionReport, Threshold: 5,
		},
		{
			Code: "pioneer", Name: "Pioneer", Description: "Recognised by the team", Icon: "rocket",
			Active: true, Kind: models.RuleManual,
		},
	}
}

// DefaultCatalog is the built-in ladder and badge set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLevels(), DefaultBadges())
	if err != nil {
		panic(err)
	}
	return c
}
