package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the per-user balance row. TotalBalance always equals
// AvailableBalance + PendingBalance.
type Wallet struct {
	UserID            string          `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	AvailableBalance  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"available_balance"`
	PendingBalance    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"pending_balance"`
	TotalBalance      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_balance"`
	TotalTransactions int64           `gorm:"not null;default:0" json:"total_transactions"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewWallet returns a zeroed wallet for userID.
func NewWallet(userID string, now time.Time) *Wallet {
	return &Wallet{
		UserID:           userID,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		TotalBalance:     decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Balanced reports whether the total equals available plus pending.
func (w *Wallet) Balanced() bool {
	return w.TotalBalance.Equal(w.AvailableBalance.Add(w.PendingBalance))
}
