package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"taskdesk-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_StatusMapping(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{domain.Validation("bad title"), fiber.StatusBadRequest, "bad title"},
		{domain.Forbidden("Forbidden."), fiber.StatusForbidden, "Forbidden."},
		{domain.NotFound("Task not found."), fiber.StatusNotFound, "Task not found."},
		{fmt.Errorf("wrapped: %w", domain.Conflict("taken")), fiber.StatusConflict, "taken"},
		{domain.ScopeViolation("Task.create: org id missing"), fiber.StatusInternalServerError, "Internal server error"},
		{errors.New("connection refused"), fiber.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return FromError(c, tc.err) })

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode)

		var body ErrorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "error", body.Status)
		assert.Equal(t, tc.message, body.Error.Message)
		assert.Equal(t, tc.status, body.Error.StatusCode)
	}
}
