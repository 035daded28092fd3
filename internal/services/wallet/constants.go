package wallet

import "time"

const (
	RecentTransactionsLimit = 10
	DefaultHistoryLimit     = 20
	MaxHistoryLimit         = 50
	CacheDuration           = 5 * time.Minute
)

// Operation names reported to the metrics collector.
const (
	opGetWallet = "get_wallet"
	opAppend    = "append_transaction"
	opComplete  = "complete_transaction"
	opCancel    = "cancel_transaction"
)
