// Package middleware provides HTTP middleware components for the application.
// Identity is owned by an external service; these handlers only verify the
// bearer token it issued and gate routes on the role and permissions it
// carries.
package middleware

import (
	"log"
	"strings"

	"civicreward/internal/models"
	"civicreward/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware handles JWT token validation.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	if secret == "" {
		panic("JWT secret is required")
	}
	return &AuthMiddleware{secret: secret}
}

// Handler validates the bearer token and stores its claims on the request.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), m.secret)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return utils.Unauthorized(c, "invalid token")
	}
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}

	utils.SetUserClaims(c, claims)
	return c.Next()
}

// RequireRoles allows the request through only for the listed roles.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}
		log.Printf("Access denied: user %s has role %s", claims.UserID, claims.Role)
		return utils.Forbidden(c, "insufficient permissions")
	}
}

// RequireStaff admits operators and administrators.
func RequireStaff() fiber.Handler {
	return RequireRoles(models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin)
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if claims.Role == models.RoleSuperAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
