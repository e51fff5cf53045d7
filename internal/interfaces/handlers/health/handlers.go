package health

import (
	"crypto/subtle"

	healthsvc "taskdesk-backend/internal/application/health"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Service        *healthsvc.Service
	HealthAdminKey string
}

func (h *Handlers) authorized(c *fiber.Ctx) bool {
	key := c.Query("key")
	return h.HealthAdminKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) == 1
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := h.Service.Collect(c.UserContext())
	status := fiber.StatusOK
	if report.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// Reset GET /health/reset?key=HEALTH_ADMIN_KEY clears the request counters.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return response.Forbidden(c, "Unauthorized")
	}
	if err := h.Service.Reset(c.UserContext()); err != nil {
		return err
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// Errors GET /health/errors?key=HEALTH_ADMIN_KEY returns the last server errors.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return response.Forbidden(c, "Unauthorized")
	}
	entries, err := h.Service.Errors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
