package repositories

import (
	"context"
	"time"

	"civicreward/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionFilter narrows a wallet history listing.
type TransactionFilter struct {
	UserID string
	Type   models.TransactionType
	Limit  int
	Offset int
}

// ExchangeFilter narrows an exchange listing. Empty fields match everything.
type ExchangeFilter struct {
	UserID string
	Status models.TransactionStatus
	Limit  int
	Offset int
}

// WalletRepository defines the wallet-side storage operations. Every balance
// mutation is a single conditional statement; callers combine them with the
// log row inside Store.ExecuteInTransaction.
type WalletRepository interface {
	// Wallet rows
	EnsureWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// Balance mutations
	Credit(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error
	Reserve(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error
	Settle(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error
	Release(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error

	// Transaction log
	CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error
	GetTransaction(ctx context.Context, id string) (*models.WalletTransaction, error)
	GetTransactionByReference(ctx context.Context, referenceID string) (*models.WalletTransaction, error)
	TransitionTransaction(ctx context.Context, referenceID string, to models.TransactionStatus, at time.Time) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.WalletTransaction, int64, error)

	// Exchanges
	CreateExchange(ctx context.Context, ex *models.ExchangeRequest) error
	ListExchanges(ctx context.Context, filter ExchangeFilter) ([]models.ExchangeRequest, int64, error)
	ExchangeTotals(ctx context.Context) (int64, decimal.Decimal, error)

	// Withdrawals
	CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	GetWithdrawalByReference(ctx context.Context, referenceID string) (*models.WithdrawalRequest, error)
	TransitionWithdrawal(ctx context.Context, id string, to models.WithdrawalStatus, at time.Time) error
	SetPayoutID(ctx context.Context, id, payoutID string) error
	CountWithdrawals(ctx context.Context, status models.WithdrawalStatus) (int64, error)
}
