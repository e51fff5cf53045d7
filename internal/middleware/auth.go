package middleware

import (
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	userLocal   = "user"
	userIDLocal = "user_id"
)

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		su, ok := c.Locals(userLocal).(*SessionUser)
		if !ok || su == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		id, err := uuid.Parse(su.UserID)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(userIDLocal, id)
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's id. Only valid behind RequireAuth.
func CurrentUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(userIDLocal).(uuid.UUID)
	return id
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *SessionUser {
	su, _ := c.Locals(userLocal).(*SessionUser)
	return su
}
