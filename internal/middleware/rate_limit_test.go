package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(func(c *fiber.Ctx) string { return c.Get("X-Client") }, rate.Limit(0.001), 2)
	app := fiber.New()
	app.Post("/login", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	do := func(client string) int {
		req := httptest.NewRequest("POST", "/login", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, do("a"))
	assert.Equal(t, fiber.StatusNoContent, do("a"))
	assert.Equal(t, fiber.StatusTooManyRequests, do("a"))
	assert.Equal(t, fiber.StatusNoContent, do("b"))
}

func TestRateLimiter_KeysSurviveBufferReuse(t *testing.T) {
	rl := NewRateLimiter(func(c *fiber.Ctx) string { return c.Get("X-Client") }, rate.Limit(0.001), 1)
	app := fiber.New()
	app.Get("/", rl.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for _, client := range []string{"alpha", "bravo", "delta"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	keys := make([]string, 0, len(rl.limiters))
	for k := range rl.limiters {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"alpha", "bravo", "delta"}, keys)
}
