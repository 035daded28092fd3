package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/utils/pagination"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordOperationDuration(op string, d time.Duration) { m.Called(op, d) }
func (m *MockMetrics) RecordOperationResult(op, result string)            { m.Called(op, result) }
func (m *MockMetrics) RecordCacheHit(key string)                          { m.Called(key) }
func (m *MockMetrics) RecordCacheMiss(key string)                         { m.Called(key) }
func (m *MockMetrics) RecordError(op, errType string)                     { m.Called(op, errType) }

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func credit(t *testing.T, svc Service, userID, value, ref string) {
	t.Helper()
	_, err := svc.AppendTransaction(context.Background(), AppendRequest{
		UserID:      userID,
		Type:        models.TransactionTypeExchange,
		Amount:      amount(value),
		ReferenceID: ref,
	})
	require.NoError(t, err)
}

// assertLedgerConsistent checks both balance invariants against the log.
func assertLedgerConsistent(t *testing.T, store repositories.Store, userID string) {
	t.Helper()
	ctx := context.Background()
	w, err := store.Wallets().GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.Balanced(), "total %s != available %s + pending %s", w.TotalBalance, w.AvailableBalance, w.PendingBalance)

	txs, _, err := store.Wallets().ListTransactions(ctx, repositories.TransactionFilter{UserID: userID})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Status == models.TransactionStatusCompleted {
			sum = sum.Add(tx.SignedAmount())
		}
	}
	assert.True(t, sum.Equal(w.TotalBalance), "log sum %s != total %s", sum, w.TotalBalance)
}

func TestGetWallet_CreatesZeroedWallet(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewService(store, nil, nil)

	view, err := svc.GetWallet(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", view.Wallet.UserID)
	assert.True(t, view.Wallet.AvailableBalance.IsZero())
	assert.True(t, view.Wallet.PendingBalance.IsZero())
	assert.True(t, view.Wallet.TotalBalance.IsZero())
	assert.Empty(t, view.RecentTransactions)
}

func TestGetWallet_RecentTransactionsCapped(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewService(store, nil, nil)
	for i := 0; i < RecentTransactionsLimit+3; i++ {
		credit(t, svc, "u1", "1", "EX-"+string(rune('a'+i)))
	}

	view, err := svc.GetWallet(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, view.RecentTransactions, RecentTransactionsLimit)
	assert.True(t, view.Wallet.AvailableBalance.Equal(amount("13")))
}

func TestAppendTransaction(t *testing.T) {
	tests := []struct {
		name    string
		req     AppendRequest
		wantErr error
	}{
		{
			name:    "zero amount",
			req:     AppendRequest{UserID: "u1", Type: models.TransactionTypeExchange, Amount: decimal.Zero, ReferenceID: "r1"},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     AppendRequest{UserID: "u1", Type: models.TransactionTypeRefund, Amount: amount("-5"), ReferenceID: "r1"},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "unknown type",
			req:     AppendRequest{UserID: "u1", Type: "gift", Amount: amount("5"), ReferenceID: "r1"},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name:    "withdrawal above balance",
			req:     AppendRequest{UserID: "u1", Type: models.TransactionTypeWithdrawal, Amount: amount("500.01"), ReferenceID: "r1"},
			wantErr: apperrors.ErrInsufficientBalance,
		},
		{
			name:    "duplicate reference",
			req:     AppendRequest{UserID: "u1", Type: models.TransactionTypeRefund, Amount: amount("1"), ReferenceID: "seed"},
			wantErr: apperrors.ErrAlreadyProcessed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repositories.NewMemoryStore()
			svc := NewService(store, nil, nil)
			credit(t, svc, "u1", "500", "seed")

			_, err := svc.AppendTransaction(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			w, err := store.Wallets().GetWallet(context.Background(), "u1")
			require.NoError(t, err)
			assert.True(t, w.AvailableBalance.Equal(amount("500")), "failed append must not move funds")
			assert.Equal(t, int64(1), w.TotalTransactions)
			assertLedgerConsistent(t, store, "u1")
		})
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("complete", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		svc := NewService(store, nil, nil)
		credit(t, svc, "u1", "200", "EX-1")

		tx, err := svc.AppendTransaction(ctx, AppendRequest{UserID: "u1", Type: models.TransactionTypeWithdrawal, Amount: amount("150"), ReferenceID: "WD-1"})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusPending, tx.Status)

		view, err := svc.GetWallet(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, view.Wallet.AvailableBalance.Equal(amount("50")))
		assert.True(t, view.Wallet.PendingBalance.Equal(amount("150")))
		assert.True(t, view.Wallet.TotalBalance.Equal(amount("200")))

		done, err := svc.Complete(ctx, "WD-1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCompleted, done.Status)

		_, err = svc.Complete(ctx, "WD-1")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
		_, err = svc.Cancel(ctx, "WD-1")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)

		view, err = svc.GetWallet(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, view.Wallet.AvailableBalance.Equal(amount("50")))
		assert.True(t, view.Wallet.PendingBalance.IsZero())
		assert.True(t, view.Wallet.TotalBalance.Equal(amount("50")))
		assertLedgerConsistent(t, store, "u1")
	})

	t.Run("cancel", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		svc := NewService(store, nil, nil)
		credit(t, svc, "u1", "200", "EX-1")

		_, err := svc.AppendTransaction(ctx, AppendRequest{UserID: "u1", Type: models.TransactionTypeWithdrawal, Amount: amount("150"), ReferenceID: "WD-1"})
		require.NoError(t, err)

		cancelled, err := svc.Cancel(ctx, "WD-1")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCancelled, cancelled.Status)

		view, err := svc.GetWallet(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, view.Wallet.AvailableBalance.Equal(amount("200")))
		assert.True(t, view.Wallet.PendingBalance.IsZero())
		assert.True(t, view.Wallet.TotalBalance.Equal(amount("200")))
		assertLedgerConsistent(t, store, "u1")
	})

	t.Run("unknown reference", func(t *testing.T) {
		svc := NewService(repositories.NewMemoryStore(), nil, nil)
		_, err := svc.Complete(ctx, "WD-404")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewService(store, nil, nil)
	credit(t, svc, "u1", "100", "EX-1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AppendTransaction(context.Background(), AppendRequest{
				UserID:      "u1",
				Type:        models.TransactionTypeWithdrawal,
				Amount:      amount("30"),
				ReferenceID: "WD-" + string(rune('A'+i)),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	w, err := store.Wallets().GetWallet(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.Equal(amount("10")))
	assert.True(t, w.PendingBalance.Equal(amount("90")))
	assertLedgerConsistent(t, store, "u1")
}

func TestHistory(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()
	credit(t, svc, "u1", "100", "EX-1")
	credit(t, svc, "u1", "100", "EX-2")
	_, err := svc.AppendTransaction(ctx, AppendRequest{UserID: "u1", Type: models.TransactionTypeWithdrawal, Amount: amount("10"), ReferenceID: "WD-1"})
	require.NoError(t, err)

	page, err := svc.History(ctx, "u1", "", pagination.New(1, 2, DefaultHistoryLimit, MaxHistoryLimit))
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)

	page, err = svc.History(ctx, "u1", models.TransactionTypeWithdrawal, pagination.New(1, 0, DefaultHistoryLimit, MaxHistoryLimit))
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, "WD-1", page.Transactions[0].ReferenceID)

	_, err = svc.History(ctx, "u1", "gift", pagination.New(1, 0, DefaultHistoryLimit, MaxHistoryLimit))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetTransaction_ScopedToOwner(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	tx, err := svc.AppendTransaction(ctx, AppendRequest{UserID: "u1", Type: models.TransactionTypeExchange, Amount: amount("5"), ReferenceID: "EX-1"})
	require.NoError(t, err)

	got, err := svc.GetTransaction(ctx, "u1", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ReferenceID, got.ReferenceID)

	_, err = svc.GetTransaction(ctx, "u2", tx.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetWallet_CacheInvalidatedAfterMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := repositories.NewMemoryStore()
	svc := NewService(store, cache.NewCacheService(client, time.Minute), nil)
	ctx := context.Background()

	_, err := svc.GetWallet(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(cache.WalletKey("u1")))

	credit(t, svc, "u1", "42.50", "EX-1")
	assert.False(t, mr.Exists(cache.WalletKey("u1")))

	view, err := svc.GetWallet(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, view.Wallet.AvailableBalance.Equal(amount("42.5")))
}

func TestMetricsRecorded(t *testing.T) {
	metrics := new(MockMetrics)
	metrics.On("RecordOperationDuration", opAppend, mock.Anything).Return()
	metrics.On("RecordOperationResult", opAppend, "failure").Return()
	metrics.On("RecordError", opAppend, "INVALID_AMOUNT").Return()

	svc := NewService(repositories.NewMemoryStore(), nil, metrics)
	_, err := svc.AppendTransaction(context.Background(), AppendRequest{UserID: "u1", Type: models.TransactionTypeExchange, Amount: decimal.Zero, ReferenceID: "r"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	metrics.AssertExpectations(t)
}

func TestMetricsRecordedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	metrics := cache.NewRedisMetrics(client, "")
	svc := NewService(repositories.NewMemoryStore(), cache.NewCacheService(client, time.Minute), metrics)
	ctx := context.Background()

	_, err := svc.GetWallet(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.GetWallet(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.AppendTransaction(ctx, AppendRequest{UserID: "u1", Type: models.TransactionTypeExchange, Amount: decimal.Zero, ReferenceID: "r"})
	require.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	counters, err := metrics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counters[opGetWallet+":success"])
	assert.Equal(t, int64(1), counters["cache:miss"])
	assert.Equal(t, int64(1), counters["cache:hit"])
	assert.Equal(t, int64(1), counters[opAppend+":failure"])
	assert.Equal(t, int64(1), counters["error:"+opAppend+":INVALID_AMOUNT"])
}
