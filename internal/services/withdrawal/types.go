package withdrawal

import (
	"time"

	"civicreward/internal/models"

	"github.com/shopspring/decimal"
)

// Request asks to move available balance out of the wallet.
type Request struct {
	UserID  string                  `json:"-"`
	Amount  decimal.Decimal         `json:"amount"`
	Method  models.WithdrawalMethod `json:"method"`
	Details models.PaymentDetails   `json:"payment_details"`
}

// QRCode is what the owner shows at a redemption point.
type QRCode struct {
	ReferenceID string          `json:"reference_id"`
	Amount      decimal.Decimal `json:"amount"`
	QRValue     string          `json:"qr_value"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// Result is the state after a workflow step.
type Result struct {
	Withdrawal  *models.WithdrawalRequest `json:"withdrawal"`
	Transaction *models.WalletTransaction `json:"transaction"`
	Wallet      *models.Wallet            `json:"wallet"`
	QR          *QRCode                   `json:"qr,omitempty"`
}
