package handlers

import (
	apperrors "civicreward/internal/errors"
	"civicreward/internal/models"
	"civicreward/internal/utils"
	"civicreward/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// parseBody decodes the JSON body into dst and runs its validate tags.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.ErrInvalidInput
	}
	return validation.Struct(dst)
}

// ownerOrStaff resolves the :userId path parameter for routes a user may
// call for themselves and staff may call for anyone.
func ownerOrStaff(c *fiber.Ctx, claims *models.UserClaims) (string, error) {
	userID := c.Params("userId")
	if userID != claims.UserID && !claims.IsStaff() {
		return "", apperrors.ErrNotOwner
	}
	return userID, nil
}
