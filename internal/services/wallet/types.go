package wallet

import (
	"time"

	"civicreward/internal/models"
	"civicreward/internal/utils/pagination"

	"github.com/shopspring/decimal"
)

// AppendRequest describes one balance-affecting event.
type AppendRequest struct {
	UserID      string
	Type        models.TransactionType
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	Metadata    map[string]interface{}
}

// View is the wallet as shown to its owner.
type View struct {
	Wallet             *models.Wallet             `json:"wallet"`
	RecentTransactions []models.WalletTransaction `json:"recent_transactions"`
}

// HistoryPage is one page of the transaction log.
type HistoryPage struct {
	Transactions []models.WalletTransaction `json:"transactions"`
	Pagination   pagination.Pagination      `json:"pagination"`
}

// MetricsCollector defines the interface for collecting wallet metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordError(operation, errType string)
}
