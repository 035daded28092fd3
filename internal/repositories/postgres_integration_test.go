//go:build integration

package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: TEST_DATABASE_DSN="host=localhost user=postgres password=postgres dbname=civicreward_test sslmode=disable" go test -tags integration ./internal/repositories/
func openTestStore(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := Open(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewStore(db)
}

func uniqueID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func TestPostgres_IncrementPointsReturnsTotal(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	userID := uniqueID("u")
	require.NoError(t, store.Rewards().EnsureUser(ctx, userID, "centre"))

	total, err := store.Rewards().IncrementPoints(ctx, userID, 20, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(20), total)

	total, err = store.Rewards().IncrementPoints(ctx, userID, 5, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)

	_, err = store.Rewards().IncrementPoints(ctx, uniqueID("ghost"), 5, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgres_ConcurrentIncrements(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	userID := uniqueID("u")
	require.NoError(t, store.Rewards().EnsureUser(ctx, userID, ""))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.ExecuteInTransaction(ctx, func(tx Store) error {
				_, err := tx.Rewards().IncrementPoints(ctx, userID, 3, time.Now())
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := store.Rewards().GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), user.TotalPoints)
}

func TestPostgres_TransactionRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	userID := uniqueID("u")
	require.NoError(t, store.Rewards().EnsureUser(ctx, userID, ""))

	boom := errors.New("boom")
	err := store.ExecuteInTransaction(ctx, func(tx Store) error {
		if _, err := tx.Rewards().IncrementPoints(ctx, userID, 50, time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.Rewards().GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, user.TotalPoints)
}

func TestPostgres_DebitExchangeablePoints(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	userID := uniqueID("u")
	require.NoError(t, store.Rewards().EnsureUser(ctx, userID, ""))
	_, err := store.Rewards().IncrementPoints(ctx, userID, 400, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.Rewards().DebitExchangeablePoints(ctx, userID, 300))
	assert.ErrorIs(t, store.Rewards().DebitExchangeablePoints(ctx, userID, 101), apperrors.ErrInsufficientPoints)

	user, err := store.Rewards().GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.ExchangeablePoints())
}

func TestPostgres_GuardedBalanceMoves(t *testing.T) {
	store := openTestStore(t)
	wallets := store.Wallets()
	ctx := context.Background()
	now := time.Now()
	userID := uniqueID("u")

	_, err := wallets.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, wallets.Credit(ctx, userID, decimal.NewFromInt(1000), now))

	assert.ErrorIs(t, wallets.Reserve(ctx, userID, decimal.NewFromInt(1001), now), apperrors.ErrInsufficientBalance)
	require.NoError(t, wallets.Reserve(ctx, userID, decimal.NewFromInt(600), now))
	require.NoError(t, wallets.Release(ctx, userID, decimal.NewFromInt(100), now))
	require.NoError(t, wallets.Settle(ctx, userID, decimal.NewFromInt(500), now))
	assert.ErrorIs(t, wallets.Settle(ctx, userID, decimal.NewFromInt(1), now), apperrors.ErrInsufficientBalance)
	assert.ErrorIs(t, wallets.Release(ctx, userID, decimal.NewFromInt(1), now), apperrors.ErrInsufficientBalance)

	w, err := wallets.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, w.PendingBalance.IsZero())
	assert.True(t, w.TotalBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, w.Balanced())
}

func TestPostgres_ConcurrentReserveNeverOverdraws(t *testing.T) {
	store := openTestStore(t)
	wallets := store.Wallets()
	ctx := context.Background()
	userID := uniqueID("u")

	_, err := wallets.EnsureWallet(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, wallets.Credit(ctx, userID, decimal.NewFromInt(100), time.Now()))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := wallets.Reserve(ctx, userID, decimal.NewFromInt(30), time.Now())
			if err == nil {
				mu.Lock()
				reserved++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, reserved)
	w, err := wallets.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.Equal(decimal.NewFromInt(10)))
	assert.True(t, w.PendingBalance.Equal(decimal.NewFromInt(90)))
	assert.True(t, w.Balanced())
}

func TestPostgres_DuplicateReferenceIsAlreadyProcessed(t *testing.T) {
	store := openTestStore(t)
	wallets := store.Wallets()
	ctx := context.Background()
	userID := uniqueID("u")
	reference := uniqueID("WD")

	tx := &models.WalletTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      decimal.NewFromInt(100),
		Status:      models.TransactionStatusPending,
		ReferenceID: reference,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, wallets.CreateTransaction(ctx, tx))

	dup := *tx
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, wallets.CreateTransaction(ctx, &dup), apperrors.ErrAlreadyProcessed)

	require.NoError(t, wallets.TransitionTransaction(ctx, reference, models.TransactionStatusCompleted, time.Now()))
	assert.ErrorIs(t, wallets.TransitionTransaction(ctx, reference, models.TransactionStatusCancelled, time.Now()), apperrors.ErrAlreadyProcessed)
	assert.ErrorIs(t, wallets.TransitionTransaction(ctx, uniqueID("WD"), models.TransactionStatusCompleted, time.Now()), apperrors.ErrNotFound)
}

func TestPostgres_ConcurrentWithdrawalTransition(t *testing.T) {
	store := openTestStore(t)
	wallets := store.Wallets()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, wallets.CreateWithdrawal(ctx, &models.WithdrawalRequest{
		ID:          id,
		UserID:      uniqueID("u"),
		ReferenceID: uniqueID("QR"),
		Amount:      decimal.NewFromInt(10),
		Method:      models.WithdrawalMethodQR,
		Status:      models.WithdrawalStatusPending,
		RequestedAt: time.Now(),
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := wallets.TransitionWithdrawal(ctx, id, models.WithdrawalStatusCompleted, time.Now())
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrAlreadyProcessed)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	w, err := wallets.GetWithdrawal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, w.Status)
	assert.NotNil(t, w.CompletedAt)
}
