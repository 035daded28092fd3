package pagination

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Pagination
	}{
		{"defaults", 0, 0, Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"third page", 3, 10, Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"clamped", 2, 500, Pagination{Page: 2, Limit: 50, Offset: 50}},
		{"negative", -4, -1, Pagination{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.page, tt.limit, 20, 50))
		})
	}
}

func TestTotalPages(t *testing.T) {
	p := New(1, 20, 20, 50)
	p.Total = 41
	assert.Equal(t, int64(3), p.TotalPages())
	p.Total = 40
	assert.Equal(t, int64(2), p.TotalPages())
}

func TestParseFromRequest(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := ParseFromRequest(c, 20, 50)
		return c.JSON(p)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/?page=2&limit=abc", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"page":2,"limit":20,"offset":20,"total":0}`, string(body))
}
