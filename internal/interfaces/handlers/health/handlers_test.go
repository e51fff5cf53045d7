package health

import (
	"net/http/httptest"
	"testing"

	healthsvc "taskdesk-backend/internal/application/health"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping() error { return nil }

func setupHealth(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := &Handlers{
		Service:        &healthsvc.Service{Rdb: rdb, DB: okPinger{}, ServiceName: "taskdesk-api"},
		HealthAdminKey: "secret",
	}
	app := fiber.New()
	app.Get("/health/json", h.JSON)
	app.Get("/health/reset", h.Reset)
	app.Get("/health/errors", h.Errors)
	return app, mr
}

func TestJSON_OK(t *testing.T) {
	app, _ := setupHealth(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReset_RequiresKey(t *testing.T) {
	app, mr := setupHealth(t)
	require.NoError(t, mr.Set(healthsvc.KeyReqTotal, "4"))

	resp, err := app.Test(httptest.NewRequest("GET", "/health/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.True(t, mr.Exists(healthsvc.KeyReqTotal))

	resp, err = app.Test(httptest.NewRequest("GET", "/health/reset?key=secret", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists(healthsvc.KeyReqTotal))
}

func TestErrors_RequiresKey(t *testing.T) {
	app, _ := setupHealth(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
