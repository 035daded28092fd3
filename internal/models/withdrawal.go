package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalMethod string

const (
	WithdrawalMethodQR          WithdrawalMethod = "qr"
	WithdrawalMethodMobileMoney WithdrawalMethod = "mobile_money"
	WithdrawalMethodBankAccount WithdrawalMethod = "bank_account"
)

func (m WithdrawalMethod) Valid() bool {
	switch m {
	case WithdrawalMethodQR, WithdrawalMethodMobileMoney, WithdrawalMethodBankAccount:
		return true
	}
	return false
}

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusCancelled WithdrawalStatus = "cancelled"
)

// PaymentDetails carries the method-specific destination.
type PaymentDetails struct {
	Phone         string `json:"phone,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	BankCode      string `json:"bank_code,omitempty"`
}

type WithdrawalRequest struct {
	ID            string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID        string           `gorm:"type:varchar(64);not null;index" json:"user_id"`
	ReferenceID   string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference_id"`
	Amount        decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount"`
	Method        WithdrawalMethod `gorm:"type:varchar(32);not null" json:"method"`
	Phone         string           `json:"phone,omitempty"`
	AccountNumber string           `json:"account_number,omitempty"`
	BankCode      string           `json:"bank_code,omitempty"`
	QRPayload     string           `gorm:"type:text" json:"-"`
	PayoutID      string           `json:"payout_id,omitempty"`
	Status        WithdrawalStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	RequestedAt   time.Time        `gorm:"not null" json:"requested_at"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
}
