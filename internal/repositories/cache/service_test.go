package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedSummary struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, time.Minute), mr
}

func TestCacheService_SetAndGet(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, RewardsKey("u1"), cachedSummary{UserID: "u1", Points: 42}))

	var got cachedSummary
	found, err := svc.Get(ctx, RewardsKey("u1"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cachedSummary{UserID: "u1", Points: 42}, got)
}

func TestCacheService_Miss(t *testing.T) {
	svc, _ := newTestCache(t)

	var got cachedSummary
	found, err := svc.Get(context.Background(), "missing", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_TTLExpires(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.SetWithTTL(ctx, WalletKey("u1"), cachedSummary{UserID: "u1"}, 30*time.Second))
	mr.FastForward(31 * time.Second)

	var got cachedSummary
	found, err := svc.Get(ctx, WalletKey("u1"), &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_DeleteMatching(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, LeaderboardKey("", 10, 0), []int{1}))
	require.NoError(t, svc.Set(ctx, LeaderboardKey("dakar", 10, 0), []int{2}))
	require.NoError(t, svc.Set(ctx, WalletKey("u1"), cachedSummary{}))

	require.NoError(t, svc.DeleteMatching(ctx, "leaderboard:*"))

	assert.False(t, mr.Exists(LeaderboardKey("", 10, 0)))
	assert.False(t, mr.Exists(LeaderboardKey("dakar", 10, 0)))
	assert.True(t, mr.Exists(WalletKey("u1")))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "wallet:user:u1", WalletKey("u1"))
	assert.Equal(t, "rewards:user:u1", RewardsKey("u1"))
	assert.Equal(t, "leaderboard:all:100:0", LeaderboardKey("", 100, 0))
	assert.Equal(t, "leaderboard:dakar:20:40", LeaderboardKey("dakar", 20, 40))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", 1))
	var v int
	found, err := c.Get(ctx, "k", &v)
	assert.NoError(t, err)
	assert.False(t, found)
}
