package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestExchangeConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("REWARDS_POINT_RATE", "")
		t.Setenv("REWARDS_MIN_POINTS", "")

		cfg := ExchangeConfigFromEnv()
		assert.True(t, cfg.RatePerPoint.Equal(decimal.RequireFromString("0.5")))
		assert.Equal(t, int64(300), cfg.MinPoints)
	})

	t.Run("read at call time", func(t *testing.T) {
		t.Setenv("REWARDS_POINT_RATE", "1.25")
		t.Setenv("REWARDS_MIN_POINTS", "50")
		cfg := ExchangeConfigFromEnv()
		assert.Equal(t, "1.25", cfg.RatePerPoint.String())
		assert.Equal(t, int64(50), cfg.MinPoints)

		t.Setenv("REWARDS_MIN_POINTS", "75")
		assert.Equal(t, int64(75), ExchangeConfigFromEnv().MinPoints)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("REWARDS_POINT_RATE", "abc")
		t.Setenv("REWARDS_MIN_POINTS", "x")
		cfg := ExchangeConfigFromEnv()
		assert.True(t, cfg.RatePerPoint.Equal(DefaultPointRate))
		assert.Equal(t, DefaultMinPoints, cfg.MinPoints)
	})
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("QR_TTL", "2h")
	assert.Equal(t, 2*time.Hour, GetDurationEnv("QR_TTL", time.Hour))
	assert.Equal(t, time.Minute, GetDurationEnv("MISSING_DURATION_KEY", time.Minute))
}
