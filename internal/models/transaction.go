package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

// Transaction types
const (
	TransactionTypeContributionPayout TransactionType = "contribution_payout"
	TransactionTypeExchange           TransactionType = "exchange"
	TransactionTypeWithdrawal         TransactionType = "withdrawal"
	TransactionTypeRefund             TransactionType = "refund"
)

// IsCredit reports whether the type adds to the available balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TransactionTypeContributionPayout, TransactionTypeExchange, TransactionTypeRefund:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t.IsCredit() || t == TransactionTypeWithdrawal
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// WalletTransaction is an append-only log row. Amount is always positive;
// the sign follows from Type. Status leaves pending at most once.
type WalletTransaction struct {
	ID          string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string            `gorm:"type:varchar(64);not null;index:idx_wallet_tx_user_created,priority:1" json:"user_id"`
	Type        TransactionType   `gorm:"type:varchar(32);not null;index" json:"type"`
	Amount      decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"amount"`
	Status      TransactionStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	ReferenceID string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference_id"`
	Description string            `json:"description"`
	Metadata    JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;index:idx_wallet_tx_user_created,priority:2" json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// SignedAmount is the effect of the row on total_balance.
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
