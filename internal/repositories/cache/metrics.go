package cache

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMetricsKey = "metrics:wallet"

	metricsTimeout = 500 * time.Millisecond
)

// RedisMetrics keeps operation counters in a single Redis hash so every
// replica adds to the same totals. Field names are
// "<operation>:<result>", "<operation>:duration_us", "<operation>:calls",
// "error:<operation>:<type>", "cache:hit" and "cache:miss".
type RedisMetrics struct {
	client *redis.Client
	key    string
}

func NewRedisMetrics(client *redis.Client, key string) *RedisMetrics {
	if key == "" {
		key = DefaultMetricsKey
	}
	return &RedisMetrics{client: client, key: key}
}

func (m *RedisMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.incr(map[string]int64{
		operation + ":duration_us": duration.Microseconds(),
		operation + ":calls":       1,
	})
}

func (m *RedisMetrics) RecordOperationResult(operation, result string) {
	m.incr(map[string]int64{operation + ":" + result: 1})
}

func (m *RedisMetrics) RecordCacheHit(string) {
	m.incr(map[string]int64{"cache:hit": 1})
}

func (m *RedisMetrics) RecordCacheMiss(string) {
	m.incr(map[string]int64{"cache:miss": 1})
}

func (m *RedisMetrics) RecordError(operation, errType string) {
	m.incr(map[string]int64{"error:" + operation + ":" + errType: 1})
}

// Snapshot returns every counter.
func (m *RedisMetrics) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := m.client.HGetAll(ctx, m.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

// incr applies every delta in one round trip. Failures are logged and never
// reach callers.
func (m *RedisMetrics) incr(deltas map[string]int64) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	pipe := m.client.Pipeline()
	for field, delta := range deltas {
		pipe.HIncrBy(ctx, m.key, field, delta)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ Metrics write failed: %v", err)
	}
}
