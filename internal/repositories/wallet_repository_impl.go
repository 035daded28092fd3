package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) EnsureWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	wallet := models.NewWallet(userID, time.Now())
	err := r.db.WithContext(ctx).
		Where(models.Wallet{UserID: userID}).
		FirstOrCreate(wallet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return wallet, nil
}

func (r *walletRepository) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"available_balance":  gorm.Expr("available_balance + ?", amount),
			"total_balance":      gorm.Expr("total_balance + ?", amount),
			"total_transactions": gorm.Expr("total_transactions + 1"),
			"updated_at":         at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to credit wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrWalletNotFound
	}
	return nil
}

// Reserve moves amount from available to pending, only if it is covered.
func (r *walletRepository) Reserve(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND available_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"available_balance":  gorm.Expr("available_balance - ?", amount),
			"pending_balance":    gorm.Expr("pending_balance + ?", amount),
			"total_transactions": gorm.Expr("total_transactions + 1"),
			"updated_at":         at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reserve funds: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

// Settle pays out previously reserved funds.
func (r *walletRepository) Settle(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND pending_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"pending_balance": gorm.Expr("pending_balance - ?", amount),
			"total_balance":   gorm.Expr("total_balance - ?", amount),
			"updated_at":      at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to settle funds: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

// Release returns reserved funds to the available balance.
func (r *walletRepository) Release(ctx context.Context, userID string, amount decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND pending_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"pending_balance":   gorm.Expr("pending_balance - ?", amount),
			"available_balance": gorm.Expr("available_balance + ?", amount),
			"updated_at":        at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to release funds: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsufficientBalance
	}
	return nil
}

func (r *walletRepository) CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) GetTransaction(ctx context.Context, id string) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *walletRepository) GetTransactionByReference(ctx context.Context, referenceID string) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := r.db.WithContext(ctx).Where("reference_id = ?", referenceID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// TransitionTransaction moves a pending transaction to a terminal status.
// Only one caller can win: the losing one sees ErrAlreadyProcessed.
func (r *walletRepository) TransitionTransaction(ctx context.Context, referenceID string, to models.TransactionStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("reference_id = ? AND status = ?", referenceID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":       to,
			"completed_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetTransactionByReference(ctx, referenceID); err != nil {
			return err
		}
		return apperrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.WalletTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", filter.UserID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txs []models.WalletTransaction
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, total, nil
}

func (r *walletRepository) CreateExchange(ctx context.Context, ex *models.ExchangeRequest) error {
	if err := r.db.WithContext(ctx).Create(ex).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to create exchange: %w", err)
	}
	return nil
}

func (r *walletRepository) ListExchanges(ctx context.Context, filter ExchangeFilter) ([]models.ExchangeRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExchangeRequest{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exchanges: %w", err)
	}

	var exchanges []models.ExchangeRequest
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&exchanges).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, total, nil
}

func (r *walletRepository) ExchangeTotals(ctx context.Context) (int64, decimal.Decimal, error) {
	var row struct {
		Points int64
		Amount decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.ExchangeRequest{}).
		Select("COALESCE(SUM(points_exchanged), 0) AS points, COALESCE(SUM(amount_cfa), 0) AS amount").
		Where("status = ?", models.TransactionStatusCompleted).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to get exchange totals: %w", err)
	}
	return row.Points, row.Amount, nil
}

func (r *walletRepository) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyProcessed
		}
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *walletRepository) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return &w, nil
}

func (r *walletRepository) GetWithdrawalByReference(ctx context.Context, referenceID string) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.WithContext(ctx).Where("reference_id = ?", referenceID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return &w, nil
}

func (r *walletRepository) TransitionWithdrawal(ctx context.Context, id string, to models.WithdrawalStatus, at time.Time) error {
	updates := map[string]interface{}{"status": to}
	switch to {
	case models.WithdrawalStatusCompleted:
		updates["completed_at"] = at
	case models.WithdrawalStatusCancelled:
		updates["cancelled_at"] = at
	}

	result := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update withdrawal status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetWithdrawal(ctx, id); err != nil {
			return err
		}
		return apperrors.ErrAlreadyProcessed
	}
	return nil
}

func (r *walletRepository) SetPayoutID(ctx context.Context, id, payoutID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ?", id).
		Update("payout_id", payoutID)
	if result.Error != nil {
		return fmt.Errorf("failed to set payout id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *walletRepository) CountWithdrawals(ctx context.Context, status models.WithdrawalStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	return count, nil
}
