package wallet

import (
	"context"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/utils/pagination"

	"github.com/shopspring/decimal"
)

type service struct {
	store   repositories.Store
	cache   cache.Cache
	metrics MetricsCollector
	now     func() time.Time
}

// NewService creates a new wallet service
func NewService(store repositories.Store, c cache.Cache, metrics MetricsCollector) Service {
	if store == nil {
		panic("store is required")
	}
	if c == nil {
		c = cache.Noop{}
	}
	// Metrics is optional, create no-op collector if nil
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		store:   store,
		cache:   c,
		metrics: metrics,
		now:     time.Now,
	}
}

// GetWallet returns the wallet with its latest transactions, creating a
// zeroed wallet on first access.
func (s *service) GetWallet(ctx context.Context, userID string) (view *View, err error) {
	defer func(start time.Time) { s.observe(opGetWallet, start, err) }(time.Now())

	if cached, ok := s.cachedView(ctx, userID); ok {
		return cached, nil
	}

	w, err := s.store.Wallets().EnsureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.store.Wallets().ListTransactions(ctx, repositories.TransactionFilter{
		UserID: userID,
		Limit:  RecentTransactionsLimit,
	})
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.WalletTransaction{}
	}

	view = &View{Wallet: w, RecentTransactions: recent}
	s.storeView(ctx, userID, view)
	return view, nil
}

func (s *service) AvailableBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	view, err := s.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return view.Wallet.AvailableBalance, nil
}

func (s *service) History(ctx context.Context, userID string, txType models.TransactionType, page pagination.Pagination) (*HistoryPage, error) {
	if txType != "" && !txType.Valid() {
		return nil, apperrors.ErrInvalidInput
	}
	txs, total, err := s.store.Wallets().ListTransactions(ctx, repositories.TransactionFilter{
		UserID: userID,
		Type:   txType,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []models.WalletTransaction{}
	}
	page.Total = total
	return &HistoryPage{Transactions: txs, Pagination: page}, nil
}

// GetTransaction only returns transactions owned by userID; anything else
// is reported as not found.
func (s *service) GetTransaction(ctx context.Context, userID, transactionID string) (*models.WalletTransaction, error) {
	tx, err := s.store.Wallets().GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return tx, nil
}

func (s *service) AppendTransaction(ctx context.Context, req AppendRequest) (tx *models.WalletTransaction, err error) {
	defer func(start time.Time) { s.observe(opAppend, start, err) }(time.Now())

	err = s.store.ExecuteInTransaction(ctx, func(store repositories.Store) error {
		var appendErr error
		tx, appendErr = Append(ctx, store, req, s.now())
		return appendErr
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, req.UserID)
	return tx, nil
}

func (s *service) Complete(ctx context.Context, referenceID string) (tx *models.WalletTransaction, err error) {
	defer func(start time.Time) { s.observe(opComplete, start, err) }(time.Now())
	return s.finish(ctx, referenceID, Settle)
}

func (s *service) Cancel(ctx context.Context, referenceID string) (tx *models.WalletTransaction, err error) {
	defer func(start time.Time) { s.observe(opCancel, start, err) }(time.Now())
	return s.finish(ctx, referenceID, Release)
}

type finisher func(context.Context, repositories.Store, string, time.Time) (*models.WalletTransaction, error)

func (s *service) finish(ctx context.Context, referenceID string, fn finisher) (*models.WalletTransaction, error) {
	var tx *models.WalletTransaction
	err := s.store.ExecuteInTransaction(ctx, func(store repositories.Store) error {
		var finishErr error
		tx, finishErr = fn(ctx, store, referenceID, s.now())
		return finishErr
	})
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, tx.UserID)
	return tx, nil
}
