package wallet

import (
	"context"

	"civicreward/internal/models"
	"civicreward/internal/utils/pagination"

	"github.com/shopspring/decimal"
)

// Service defines the main wallet service interface
type Service interface {
	// Reads
	GetWallet(ctx context.Context, userID string) (*View, error)
	AvailableBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	History(ctx context.Context, userID string, txType models.TransactionType, page pagination.Pagination) (*HistoryPage, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*models.WalletTransaction, error)

	// Log mutations, each in its own database transaction
	AppendTransaction(ctx context.Context, req AppendRequest) (*models.WalletTransaction, error)
	Complete(ctx context.Context, referenceID string) (*models.WalletTransaction, error)
	Cancel(ctx context.Context, referenceID string) (*models.WalletTransaction, error)

	// Invalidate drops cached wallet views after another service committed.
	Invalidate(ctx context.Context, userIDs ...string)
}
