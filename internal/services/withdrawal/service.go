// Package withdrawal runs the pending -> completed/cancelled state machine
// that moves available wallet balance out to a payout method.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/payout"
	"civicreward/internal/services/wallet"

	"github.com/google/uuid"
)

type Service interface {
	RequestWithdrawal(ctx context.Context, req Request) (*Result, error)
	GenerateWithdrawalQR(ctx context.Context, userID string, req Request) (*QRCode, error)
	ProcessWithdrawalQR(ctx context.Context, redeemerID, payload string) (*Result, error)
	CancelWithdrawal(ctx context.Context, userID, withdrawalID string) (*Result, error)
	CompleteWithdrawal(ctx context.Context, withdrawalID string) (*Result, error)
}

type service struct {
	store    repositories.Store
	wallets  wallet.Service
	signer   *QRSigner
	gateway  payout.Gateway
	notifier notification.Notifier
	now      func() time.Time
}

func NewService(
	store repositories.Store,
	wallets wallet.Service,
	signer *QRSigner,
	gateway payout.Gateway,
	notifier notification.Notifier,
) Service {
	if store == nil {
		panic("store is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if signer == nil {
		panic("QR signer is required")
	}
	if gateway == nil {
		gateway = payout.NoopGateway{}
	}
	if notifier == nil {
		notifier = notification.Discard{}
	}
	return &service{
		store:    store,
		wallets:  wallets,
		signer:   signer,
		gateway:  gateway,
		notifier: notifier,
		now:      time.Now,
	}
}

func validateRequest(req Request) error {
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	if !req.Method.Valid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidMethod, req.Method)
	}

	d := req.Details
	switch req.Method {
	case models.WithdrawalMethodMobileMoney:
		if strings.TrimSpace(d.Phone) == "" {
			return fmt.Errorf("%w: phone is required", apperrors.ErrMissingPaymentDetails)
		}
	case models.WithdrawalMethodBankAccount:
		if strings.TrimSpace(d.AccountNumber) == "" || strings.TrimSpace(d.BankCode) == "" {
			return fmt.Errorf("%w: account_number and bank_code are required", apperrors.ErrMissingPaymentDetails)
		}
	}
	return nil
}

func (s *service) RequestWithdrawal(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	prefix := models.ReferenceWithdrawal
	if req.Method == models.WithdrawalMethodQR {
		prefix = models.ReferenceQR
	}
	reference := models.NewReference(prefix, now)

	w := &models.WithdrawalRequest{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		ReferenceID:   reference,
		Amount:        req.Amount,
		Method:        req.Method,
		Phone:         req.Details.Phone,
		AccountNumber: req.Details.AccountNumber,
		BankCode:      req.Details.BankCode,
		Status:        models.WithdrawalStatusPending,
		RequestedAt:   now,
	}

	result := &Result{Withdrawal: w}
	if req.Method == models.WithdrawalMethodQR {
		payload, expiresAt, err := s.signer.Sign(reference, req.UserID, req.Amount, now)
		if err != nil {
			return nil, err
		}
		w.QRPayload = payload
		result.QR = &QRCode{
			ReferenceID: reference,
			Amount:      req.Amount,
			QRValue:     payload,
			ExpiresAt:   expiresAt,
		}
	}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		wtx, err := wallet.Append(ctx, tx, wallet.AppendRequest{
			UserID:      req.UserID,
			Type:        models.TransactionTypeWithdrawal,
			Amount:      req.Amount,
			ReferenceID: reference,
			Description: fmt.Sprintf("Withdrawal via %s", req.Method),
			Metadata: map[string]interface{}{
				"withdrawal_id": w.ID,
				"method":        string(req.Method),
			},
		}, now)
		if err != nil {
			return err
		}
		if err := tx.Wallets().CreateWithdrawal(ctx, w); err != nil {
			return err
		}

		balance, err := tx.Wallets().GetWallet(ctx, req.UserID)
		if err != nil {
			return err
		}
		result.Transaction = wtx
		result.Wallet = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📤 Withdrawal %s requested by %s: %s via %s", reference, req.UserID, req.Amount.StringFixed(2), req.Method)
	s.wallets.Invalidate(ctx, req.UserID)

	if req.Method != models.WithdrawalMethodQR {
		s.handOff(ctx, w)
	}

	s.notifier.Notify(ctx, notification.Event{
		Kind:    notification.KindWithdrawalRequested,
		Title:   "Withdrawal requested",
		Message: fmt.Sprintf("User %s requested a withdrawal of %s via %s", req.UserID, req.Amount.StringFixed(2), req.Method),
		Payload: map[string]interface{}{
			"user_id":       req.UserID,
			"withdrawal_id": w.ID,
			"reference_id":  reference,
			"amount":        req.Amount.StringFixed(2),
			"method":        string(req.Method),
		},
		Audience: notification.ToStaff(),
	})
	return result, nil
}

// handOff submits a committed withdrawal to the payout gateway. Failures
// leave the request pending for staff follow-up.
func (s *service) handOff(ctx context.Context, w *models.WithdrawalRequest) {
	payoutID, err := s.gateway.RequestPayout(ctx, payout.Request{
		ReferenceID: w.ReferenceID,
		UserID:      w.UserID,
		Amount:      w.Amount,
		Method:      w.Method,
		Details: models.PaymentDetails{
			Phone:         w.Phone,
			AccountNumber: w.AccountNumber,
			BankCode:      w.BankCode,
		},
	})
	if err != nil {
		log.Printf("⚠️ Payout hand-off failed for %s: %v", w.ReferenceID, err)
		return
	}
	if err := s.store.Wallets().SetPayoutID(ctx, w.ID, payoutID); err != nil {
		log.Printf("⚠️ Failed to record payout %s for %s: %v", payoutID, w.ReferenceID, err)
		return
	}
	w.PayoutID = payoutID
}

func (s *service) GenerateWithdrawalQR(ctx context.Context, userID string, req Request) (*QRCode, error) {
	req.UserID = userID
	req.Method = models.WithdrawalMethodQR
	result, err := s.RequestWithdrawal(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.QR, nil
}

func (s *service) ProcessWithdrawalQR(ctx context.Context, redeemerID, payload string) (*Result, error) {
	claims, err := s.signer.Verify(payload)
	if err != nil {
		return nil, err
	}
	if claims.UserID != redeemerID {
		return nil, apperrors.ErrNotYourQR
	}

	w, err := s.store.Wallets().GetWithdrawalByReference(ctx, claims.ReferenceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidQR
		}
		return nil, err
	}

	// the server-side record is authoritative; the payload must agree with it
	amount, err := claims.AmountValue()
	if err != nil {
		return nil, err
	}
	if w.UserID != claims.UserID || w.Method != models.WithdrawalMethodQR || !w.Amount.Equal(amount) {
		return nil, apperrors.ErrInvalidQR
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperrors.ErrAlreadyProcessed
	}

	result, err := s.settle(ctx, w, models.WithdrawalStatusCompleted)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Withdrawal QR %s redeemed by %s", w.ReferenceID, redeemerID)
	return result, nil
}

func (s *service) CancelWithdrawal(ctx context.Context, userID, withdrawalID string) (*Result, error) {
	w, err := s.store.Wallets().GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, apperrors.ErrNotOwner
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperrors.ErrAlreadyProcessed
	}

	result, err := s.settle(ctx, w, models.WithdrawalStatusCancelled)
	if err != nil {
		return nil, err
	}
	log.Printf("↩️ Withdrawal %s cancelled by %s", w.ReferenceID, userID)
	return result, nil
}

func (s *service) CompleteWithdrawal(ctx context.Context, withdrawalID string) (*Result, error) {
	w, err := s.store.Wallets().GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	// QR withdrawals complete only through their owner's redemption.
	if w.Method == models.WithdrawalMethodQR {
		return nil, fmt.Errorf("%w: qr withdrawals are settled by redemption", apperrors.ErrInvalidMethod)
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperrors.ErrAlreadyProcessed
	}

	result, err := s.settle(ctx, w, models.WithdrawalStatusCompleted)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Withdrawal %s settled", w.ReferenceID)
	return result, nil
}

// settle moves a pending request to its final state together with the wallet
// balances. The status compare-and-set runs first so a concurrent second
// attempt fails with ErrAlreadyProcessed before any balance moves.
func (s *service) settle(ctx context.Context, w *models.WithdrawalRequest, to models.WithdrawalStatus) (*Result, error) {
	now := s.now()
	result := &Result{}

	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Wallets().TransitionWithdrawal(ctx, w.ID, to, now); err != nil {
			return err
		}

		var (
			wtx *models.WalletTransaction
			err error
		)
		if to == models.WithdrawalStatusCompleted {
			wtx, err = wallet.Settle(ctx, tx, w.ReferenceID, now)
		} else {
			wtx, err = wallet.Release(ctx, tx, w.ReferenceID, now)
		}
		if err != nil {
			return err
		}

		updated, err := tx.Wallets().GetWithdrawal(ctx, w.ID)
		if err != nil {
			return err
		}
		balance, err := tx.Wallets().GetWallet(ctx, w.UserID)
		if err != nil {
			return err
		}
		result.Withdrawal = updated
		result.Transaction = wtx
		result.Wallet = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wallets.Invalidate(ctx, w.UserID)
	return result, nil
}
