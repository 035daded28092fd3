package wallet

import (
	"context"
	"fmt"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"

	"github.com/google/uuid"
)

// Append writes one log row and its balance effect through store, which is
// expected to be a transactional view.
func Append(ctx context.Context, store repositories.Store, req AppendRequest, now time.Time) (*models.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrInvalidInput, req.Type)
	}
	if req.ReferenceID == "" {
		return nil, fmt.Errorf("%w: reference id is required", apperrors.ErrInvalidInput)
	}

	wallets := store.Wallets()
	if _, err := wallets.EnsureWallet(ctx, req.UserID); err != nil {
		return nil, err
	}

	tx := &models.WalletTransaction{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Type:        req.Type,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Metadata:    models.NewJSON(req.Metadata),
		CreatedAt:   now,
	}

	if req.Type.IsCredit() {
		completed := now
		tx.Status = models.TransactionStatusCompleted
		tx.CompletedAt = &completed
		if err := wallets.Credit(ctx, req.UserID, req.Amount, now); err != nil {
			return nil, err
		}
	} else {
		tx.Status = models.TransactionStatusPending
		if err := wallets.Reserve(ctx, req.UserID, req.Amount, now); err != nil {
			return nil, err
		}
	}

	if err := wallets.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Settle completes a pending withdrawal: pending and total drop by its amount.
func Settle(ctx context.Context, store repositories.Store, referenceID string, now time.Time) (*models.WalletTransaction, error) {
	return finish(ctx, store, referenceID, models.TransactionStatusCompleted, now)
}

// Release cancels a pending withdrawal: its amount returns to available.
func Release(ctx context.Context, store repositories.Store, referenceID string, now time.Time) (*models.WalletTransaction, error) {
	return finish(ctx, store, referenceID, models.TransactionStatusCancelled, now)
}

func finish(ctx context.Context, store repositories.Store, referenceID string, to models.TransactionStatus, now time.Time) (*models.WalletTransaction, error) {
	wallets := store.Wallets()
	tx, err := wallets.GetTransactionByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionStatusPending {
		return nil, apperrors.ErrAlreadyProcessed
	}

	// status moves before balances: a lost CAS leaves balances untouched
	if err := wallets.TransitionTransaction(ctx, referenceID, to, now); err != nil {
		return nil, err
	}

	if tx.Type == models.TransactionTypeWithdrawal {
		switch to {
		case models.TransactionStatusCompleted:
			err = wallets.Settle(ctx, tx.UserID, tx.Amount, now)
		case models.TransactionStatusCancelled:
			err = wallets.Release(ctx, tx.UserID, tx.Amount, now)
		}
		if err != nil {
			return nil, err
		}
	}

	completed := now
	tx.Status = to
	tx.CompletedAt = &completed
	return tx, nil
}
