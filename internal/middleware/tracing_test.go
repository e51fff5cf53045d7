package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing(), RouteLogger())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(traceIDHeader))
	assert.NoError(t, err)

	inbound := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, inbound)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, inbound, resp.Header.Get(traceIDHeader))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(traceIDHeader, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", resp.Header.Get(traceIDHeader))
}
