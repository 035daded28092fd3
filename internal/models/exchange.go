package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRequest records one conversion of points into wallet currency.
type ExchangeRequest struct {
	ID              string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string            `gorm:"type:varchar(64);not null;index" json:"user_id"`
	ReferenceID     string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference_id"`
	PointsExchanged int64             `gorm:"not null" json:"points_exchanged"`
	AmountCFA       decimal.Decimal   `gorm:"column:amount_cfa;type:numeric(18,2);not null" json:"amount_cfa"`
	RatePerPoint    decimal.Decimal   `gorm:"type:numeric(18,6);not null" json:"rate_per_point"`
	Status          TransactionStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt       time.Time         `gorm:"not null;index" json:"created_at"`
}
