package withdrawal

import (
	"errors"
	"fmt"
	"time"

	"civicreward/internal/config"
	apperrors "civicreward/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

const (
	qrPayloadType = "withdrawal"
	qrIssuer      = "civicreward-wallet"

	DefaultQRTTL = 24 * time.Hour
)

// QRClaims is the signed body of a withdrawal QR code.
type QRClaims struct {
	jwt.RegisteredClaims
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Timestamp   int64  `json:"timestamp"`
}

// QRSigner mints and verifies HS256-signed withdrawal payloads.
type QRSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewQRSigner(secret string, ttl time.Duration) (*QRSigner, error) {
	if secret == "" {
		return nil, errors.New("QR signing secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultQRTTL
	}
	return &QRSigner{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// QRSignerFromEnv reads QR_SIGNING_SECRET and QR_TTL.
func QRSignerFromEnv() (*QRSigner, error) {
	return NewQRSigner(
		config.GetEnv("QR_SIGNING_SECRET", ""),
		config.GetDurationEnv("QR_TTL", DefaultQRTTL),
	)
}

// Sign returns the payload for one withdrawal and the time it stops being
// redeemable.
func (s *QRSigner) Sign(referenceID, userID string, amount decimal.Decimal, issuedAt time.Time) (string, time.Time, error) {
	expiresAt := issuedAt.Add(s.ttl)
	claims := QRClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    qrIssuer,
			Subject:   userID,
		},
		Type:        qrPayloadType,
		ReferenceID: referenceID,
		UserID:      userID,
		Amount:      amount.StringFixed(2),
		Timestamp:   issuedAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign withdrawal QR: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks signature and expiry. Expired payloads yield ErrQRExpired,
// anything else unreadable yields ErrInvalidQR.
func (s *QRSigner) Verify(payload string) (*QRClaims, error) {
	claims := &QRClaims{}
	token, err := jwt.ParseWithClaims(payload, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(qrIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrQRExpired
		}
		return nil, apperrors.ErrInvalidQR
	}
	if !token.Valid || claims.Type != qrPayloadType || claims.ReferenceID == "" || claims.UserID == "" {
		return nil, apperrors.ErrInvalidQR
	}
	return claims, nil
}

// AmountValue parses the embedded amount.
func (c *QRClaims) AmountValue() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(c.Amount)
	if err != nil {
		return decimal.Zero, apperrors.ErrInvalidQR
	}
	return amount, nil
}
