package utils

import (
	"errors"

	"civicreward/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys written by the auth middleware.
const (
	ClaimsLocal = "claims"
	UserIDLocal = "userID"
)

var errNoClaims = errors.New("request carries no user claims")

// SetUserClaims attaches verified claims to the request.
func SetUserClaims(c *fiber.Ctx, claims *models.UserClaims) {
	c.Locals(ClaimsLocal, claims)
	c.Locals(UserIDLocal, claims.UserID)
}

// GetUserClaims returns the claims stored by SetUserClaims.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(ClaimsLocal).(*models.UserClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, errNoClaims
	}
	return claims, nil
}
