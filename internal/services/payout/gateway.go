// Package payout hands approved withdrawals to the external settlement rails.
// The reward core only records that a payout was requested; confirmation
// comes back through staff settlement.
package payout

import (
	"context"
	"fmt"
	"log"
	"strings"

	"civicreward/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// Request is one payout order.
type Request struct {
	ReferenceID string
	UserID      string
	Amount      decimal.Decimal
	Method      models.WithdrawalMethod
	Details     models.PaymentDetails
}

// Gateway submits payouts and returns the provider's payout id.
type Gateway interface {
	RequestPayout(ctx context.Context, req Request) (string, error)
}

// NoopGateway accepts every payout locally, for development and tests.
type NoopGateway struct{}

func (NoopGateway) RequestPayout(_ context.Context, req Request) (string, error) {
	id := "po_local_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	log.Printf("🏦 Payout %s queued locally for %s (%s %s)", id, req.UserID, req.Amount.StringFixed(2), req.Method)
	return id, nil
}

type payoutCreator interface {
	New(params *stripe.PayoutParams) (*stripe.Payout, error)
}

// StripeGateway creates Stripe payouts tagged with the withdrawal reference.
type StripeGateway struct {
	payouts  payoutCreator
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	sc := client.New(secretKey, nil)
	return newStripeGateway(sc.Payouts, currency)
}

func newStripeGateway(payouts payoutCreator, currency string) *StripeGateway {
	if currency == "" {
		currency = "xof"
	}
	return &StripeGateway{payouts: payouts, currency: strings.ToLower(currency)}
}

func (g *StripeGateway) RequestPayout(ctx context.Context, req Request) (string, error) {
	amount, err := MinorUnits(req.Amount, g.currency)
	if err != nil {
		return "", err
	}

	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(g.currency),
		Description: stripe.String("Reward withdrawal " + req.ReferenceID),
	}
	params.Context = ctx
	params.AddMetadata("reference_id", req.ReferenceID)
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("method", string(req.Method))

	po, err := g.payouts.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe payout failed: %w", err)
	}
	return po.ID, nil
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorUnits converts amount into the integer unit Stripe expects for
// currency. Zero-decimal currencies reject fractional amounts.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	scaled := amount
	if !zeroDecimalCurrencies[strings.ToLower(currency)] {
		scaled = amount.Shift(2)
	}
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has too many decimals for %s", amount, currency)
	}
	return scaled.IntPart(), nil
}
