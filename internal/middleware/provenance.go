package middleware

import (
	"unicode/utf8"

	"taskdesk-backend/internal/application/audit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const maxUserAgentBytes = 512

// Provenance stores the client IP and user agent in the request's user
// context, where audit entries pick them up.
func Provenance() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ua := truncateUTF8(c.Get(fiber.HeaderUserAgent), maxUserAgentBytes)
		c.SetUserContext(audit.WithProvenance(c.UserContext(), audit.Provenance{
			IP:        c.IP(),
			UserAgent: utils.CopyString(ua),
		}))
		return c.Next()
	}
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
