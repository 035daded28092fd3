package config

import "github.com/shopspring/decimal"

// Exchange defaults. Rates are currency units (F CFA) per point.
var (
	DefaultPointRate = decimal.RequireFromString("0.5")
)

const DefaultMinPoints int64 = 300

// ExchangeConfig holds the tunables of the points exchange. Exchanges of at
// least NotifyThreshold are announced to staff.
type ExchangeConfig struct {
	RatePerPoint    decimal.Decimal `json:"rate_per_point"`
	MinPoints       int64           `json:"min_points"`
	Currency        string          `json:"currency"`
	NotifyThreshold decimal.Decimal `json:"-"`
}

// ExchangeConfigFromEnv reads REWARDS_POINT_RATE, REWARDS_MIN_POINTS and
// EXCHANGE_NOTIFY_THRESHOLD. It is called on every exchange so the values
// can change at runtime.
func ExchangeConfigFromEnv() ExchangeConfig {
	return ExchangeConfig{
		RatePerPoint:    GetDecimalEnv("REWARDS_POINT_RATE", DefaultPointRate),
		MinPoints:       GetInt64Env("REWARDS_MIN_POINTS", DefaultMinPoints),
		Currency:        "XOF",
		NotifyThreshold: GetDecimalEnv("EXCHANGE_NOTIFY_THRESHOLD", decimal.Zero),
	}
}
