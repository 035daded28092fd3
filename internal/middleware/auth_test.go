package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"civicreward/internal/models"
	"civicreward/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func newApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(testSecret)
	ok := func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return err
		}
		return c.SendString(claims.UserID)
	}
	app.Get("/me", auth.Handler, ok)
	app.Get("/staff", auth.Handler, RequireStaff(), ok)
	app.Get("/award", auth.Handler, RequireRoles(models.RoleSuperAdmin), ok)
	app.Get("/settle", auth.Handler, HasPermission(models.PermissionWithdrawalSettle), ok)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(&models.UserClaims{UserID: "u-" + role, Role: role}, testSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func status(t *testing.T, app *fiber.App, path, auth string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/me", "Token abc"))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "/me", "Bearer not-a-jwt"))
	assert.Equal(t, fiber.StatusOK, status(t, app, "/me", bearer(t, models.RoleUser)))
}

func TestRoleGuards(t *testing.T) {
	app := newApp()

	tests := []struct {
		path string
		role string
		want int
	}{
		{"/staff", models.RoleUser, fiber.StatusForbidden},
		{"/staff", models.RoleOperator, fiber.StatusOK},
		{"/staff", models.RoleAdmin, fiber.StatusOK},
		{"/award", models.RoleAdmin, fiber.StatusForbidden},
		{"/award", models.RoleSuperAdmin, fiber.StatusOK},
		{"/settle", models.RoleUser, fiber.StatusForbidden},
		{"/settle", models.RoleOperator, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, status(t, app, tt.path, bearer(t, tt.role)))
		})
	}
}
