// Package exchange converts points into wallet currency.
//
// Amounts are points * rate rounded to 2 decimals, half away from zero
// (decimal.Round), which is half-up for the positive values produced here.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"civicreward/internal/config"
	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/wallet"
	"civicreward/internal/utils/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Result is the outcome of a successful exchange.
type Result struct {
	Exchange        *models.ExchangeRequest   `json:"exchange"`
	Transaction     *models.WalletTransaction `json:"transaction"`
	Wallet          *models.Wallet            `json:"wallet"`
	PointsExchanged int64                     `json:"points_exchanged"`
	AmountCFA       decimal.Decimal           `json:"amount_cfa"`
	RemainingPoints int64                     `json:"remaining_points"`
}

// Filter narrows an exchange listing.
type Filter struct {
	UserID string
	Status models.TransactionStatus
}

type ListPage struct {
	Exchanges  []models.ExchangeRequest `json:"exchanges"`
	Pagination pagination.Pagination    `json:"pagination"`
}

// ConfigFunc returns the exchange tunables; it is called once per request.
type ConfigFunc func() config.ExchangeConfig

type Service interface {
	Config() config.ExchangeConfig
	RequestExchange(ctx context.Context, userID string, points interface{}) (*Result, error)
	List(ctx context.Context, filter Filter, page pagination.Pagination) (*ListPage, error)
}

type service struct {
	store    repositories.Store
	wallets  wallet.Service
	cache    cache.Cache
	notifier notification.Notifier
	config   ConfigFunc
	now      func() time.Time
}

func NewService(
	store repositories.Store,
	wallets wallet.Service,
	c cache.Cache,
	notifier notification.Notifier,
	cfg ConfigFunc,
) Service {
	if store == nil {
		panic("store is required")
	}
	if wallets == nil {
		panic("wallet service is required")
	}
	if c == nil {
		c = cache.Noop{}
	}
	if notifier == nil {
		notifier = notification.Discard{}
	}
	if cfg == nil {
		cfg = config.ExchangeConfigFromEnv
	}
	return &service{
		store:    store,
		wallets:  wallets,
		cache:    c,
		notifier: notifier,
		config:   cfg,
		now:      time.Now,
	}
}

func (s *service) Config() config.ExchangeConfig {
	return s.config()
}

// Amount converts points at rate, rounded to 2 decimals.
func Amount(points int64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(rate).Round(2)
}

func (s *service) RequestExchange(ctx context.Context, userID string, raw interface{}) (*Result, error) {
	points, err := ParsePoints(raw)
	if err != nil {
		return nil, err
	}

	cfg := s.config()
	if points < cfg.MinPoints {
		return nil, fmt.Errorf("%w: at least %d points required", apperrors.ErrMinimumNotMet, cfg.MinPoints)
	}

	user, err := s.store.Rewards().GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInsufficientPoints
		}
		return nil, err
	}
	if user.ExchangeablePoints() < points {
		return nil, apperrors.ErrInsufficientPoints
	}

	amount := Amount(points, cfg.RatePerPoint)
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	now := s.now()
	reference := models.NewReference(models.ReferenceExchange, now)
	result := &Result{PointsExchanged: points, AmountCFA: amount}

	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if err := tx.Rewards().DebitExchangeablePoints(ctx, userID, points); err != nil {
			return err
		}

		ex := &models.ExchangeRequest{
			ID:              uuid.NewString(),
			UserID:          userID,
			ReferenceID:     reference,
			PointsExchanged: points,
			AmountCFA:       amount,
			RatePerPoint:    cfg.RatePerPoint,
			Status:          models.TransactionStatusCompleted,
			CreatedAt:       now,
		}
		if err := tx.Wallets().CreateExchange(ctx, ex); err != nil {
			return err
		}

		wtx, err := wallet.Append(ctx, tx, wallet.AppendRequest{
			UserID:      userID,
			Type:        models.TransactionTypeExchange,
			Amount:      amount,
			ReferenceID: reference,
			Description: fmt.Sprintf("Exchange of %d points", points),
			Metadata: map[string]interface{}{
				"points_exchanged": points,
				"rate_per_point":   cfg.RatePerPoint.String(),
			},
		}, now)
		if err != nil {
			return err
		}

		w, err := tx.Wallets().GetWallet(ctx, userID)
		if err != nil {
			return err
		}
		u, err := tx.Rewards().GetUser(ctx, userID)
		if err != nil {
			return err
		}

		result.Exchange = ex
		result.Transaction = wtx
		result.Wallet = w
		result.RemainingPoints = u.ExchangeablePoints()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("💱 User %s exchanged %d points for %s %s (%s)", userID, points, amount.StringFixed(2), cfg.Currency, reference)
	s.wallets.Invalidate(ctx, userID)
	if err := s.cache.Delete(ctx, cache.RewardsKey(userID)); err != nil {
		log.Printf("⚠️ Rewards cache invalidation failed for %s: %v", userID, err)
	}

	if amount.GreaterThanOrEqual(cfg.NotifyThreshold) {
		s.notifier.Notify(ctx, notification.Event{
			Kind:    notification.KindRewardsExchange,
			Title:   "Points exchange",
			Message: fmt.Sprintf("User %s exchanged %d points for %s %s", userID, points, amount.StringFixed(2), cfg.Currency),
			Payload: map[string]interface{}{
				"user_id":          userID,
				"reference_id":     reference,
				"points_exchanged": points,
				"amount_cfa":       amount.StringFixed(2),
			},
			Audience: notification.ToStaff(),
		})
	}
	return result, nil
}

func (s *service) List(ctx context.Context, filter Filter, page pagination.Pagination) (*ListPage, error) {
	exchanges, total, err := s.store.Wallets().ListExchanges(ctx, repositories.ExchangeFilter{
		UserID: filter.UserID,
		Status: filter.Status,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	if exchanges == nil {
		exchanges = []models.ExchangeRequest{}
	}
	page.Total = total
	return &ListPage{Exchanges: exchanges, Pagination: page}, nil
}
