package rewards

import (
	"context"
	"log"
	"math"
	"sort"

	"civicreward/internal/models"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/services/progression"
)

// GetUserRewards returns the user's standing. A user who never earned points
// gets a zeroed profile at the first level.
func (s *service) GetUserRewards(ctx context.Context, userID string) (*Profile, error) {
	key := cache.RewardsKey(userID)
	var cached Profile
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("⚠️ Rewards cache read failed for %s: %v", userID, err)
	}
	if found {
		return &cached, nil
	}

	user, err := s.store.Rewards().GetUser(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		user = &models.User{ID: userID, CurrentLevelID: 1, Badges: models.BadgeSet{}}
	}

	profile := s.buildProfile(user)
	rank, ranked, err := s.leaderboard.RankOf(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if ranked {
		profile.Rank = &rank
	}

	if err := s.cache.SetWithTTL(ctx, key, profile, ProfileCacheTTL); err != nil {
		log.Printf("⚠️ Rewards cache write failed for %s: %v", userID, err)
	}
	return profile, nil
}

func (s *service) buildProfile(user *models.User) *Profile {
	catalog := s.evaluator.Catalog()
	current, ok := catalog.Level(user.CurrentLevelID)
	if !ok {
		current = catalog.LevelFor(user.TotalPoints)
	}

	profile := &Profile{
		UserID:             user.ID,
		TotalPoints:        user.TotalPoints,
		ExchangeablePoints: user.ExchangeablePoints(),
		CurrentLevel:       current,
		ProgressPercentage: 100,
		Badges:             make([]progression.UnlockedBadge, 0, len(user.Badges)),
	}

	if next, ok := catalog.NextLevel(current.LevelID); ok {
		profile.NextLevel = &next
		profile.PointsToNextLevel = max(next.PointsRequired-user.TotalPoints, 0)
		profile.ProgressPercentage = ProgressPercentage(user.TotalPoints, current.PointsRequired, next.PointsRequired)
	}

	for code, at := range user.Badges {
		b := progression.UnlockedBadge{Code: code, Name: code, UnlockedAt: at}
		if badge, ok := catalog.Badge(code); ok {
			b.Name = badge.Name
			b.Icon = badge.Icon
		}
		profile.Badges = append(profile.Badges, b)
	}
	sort.Slice(profile.Badges, func(i, j int) bool {
		a, b := profile.Badges[i], profile.Badges[j]
		if !a.UnlockedAt.Equal(b.UnlockedAt) {
			return a.UnlockedAt.Before(b.UnlockedAt)
		}
		return a.Code < b.Code
	})
	return profile
}

// ProgressPercentage is the rounded share of the way from the current level
// threshold to the next one, clamped to [0, 100].
func ProgressPercentage(total, current, next int64) int {
	if next <= current {
		return 100
	}
	pct := math.Round(float64(total-current) / float64(next-current) * 100)
	return int(math.Max(0, math.Min(100, pct)))
}
