// Package leaderboard ranks users by cumulative points.
//
// Pages are served through the cache for up to the configured TTL, which is
// the documented lag between a recorded contribution and its visibility in
// the ranking. Ties share a rank (1, 2, 2, 4).
package leaderboard

import (
	"context"
	"errors"
	"log"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
)

const (
	DefaultLimit    = 100
	MaxLimit        = 500
	DefaultCacheTTL = 30 * time.Second
)

// Query selects one page of the ranking.
type Query struct {
	RegionID string
	Limit    int
	Offset   int
}

// Page is one ranked slice of the leaderboard.
type Page struct {
	RegionID string                    `json:"region_id,omitempty"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
	Entries  []models.LeaderboardEntry `json:"entries"`
}

type Service interface {
	Top(ctx context.Context, q Query) (*Page, error)
	// RankOf returns the user's rank, or false when the user is unranked.
	RankOf(ctx context.Context, userID, regionID string) (int, bool, error)
}

type service struct {
	repo  repositories.RewardRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewService(repo repositories.RewardRepository, c cache.Cache, ttl time.Duration) Service {
	if repo == nil {
		panic("repo is required")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &service{repo: repo, cache: c, ttl: ttl}
}

func normalize(q Query) Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

func (s *service) Top(ctx context.Context, q Query) (*Page, error) {
	q = normalize(q)
	key := cache.LeaderboardKey(q.RegionID, q.Limit, q.Offset)

	var cached Page
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("⚠️ Leaderboard cache read failed: %v", err)
	}
	if found {
		return &cached, nil
	}

	users, err := s.repo.Leaderboard(ctx, repositories.LeaderboardQuery{
		RegionID: q.RegionID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{
		RegionID: q.RegionID,
		Limit:    q.Limit,
		Offset:   q.Offset,
		Entries:  make([]models.LeaderboardEntry, 0, len(users)),
	}

	rank := 0
	var prevPoints int64 = -1
	for _, u := range users {
		if u.TotalPoints != prevPoints {
			ahead, err := s.repo.CountAhead(ctx, q.RegionID, u.TotalPoints)
			if err != nil {
				return nil, err
			}
			rank = int(ahead) + 1
			prevPoints = u.TotalPoints
		}
		page.Entries = append(page.Entries, models.LeaderboardEntry{
			Rank:               rank,
			UserID:             u.ID,
			RegionID:           u.RegionID,
			TotalPoints:        u.TotalPoints,
			CurrentLevelID:     u.CurrentLevelID,
			BadgeCount:         len(u.Badges),
			LastContributionAt: u.LastContributionAt,
		})
	}

	if err := s.cache.SetWithTTL(ctx, key, page, s.ttl); err != nil {
		log.Printf("⚠️ Leaderboard cache write failed: %v", err)
	}
	return page, nil
}

func (s *service) RankOf(ctx context.Context, userID, regionID string) (int, bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if user.TotalPoints <= 0 || (regionID != "" && user.RegionID != regionID) {
		return 0, false, nil
	}

	ahead, err := s.repo.CountAhead(ctx, regionID, user.TotalPoints)
	if err != nil {
		return 0, false, err
	}
	return int(ahead) + 1, true, nil
}
