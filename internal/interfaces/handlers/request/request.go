// Package request holds the small parsing helpers shared by the HTTP handlers.
package request

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"taskdesk-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UUIDParam parses a path parameter. A malformed id reads as not found.
func UUIDParam(c *fiber.Ctx, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.NotFound(notFound)
	}
	return id, nil
}

// Decode unmarshals the JSON body into v.
func Decode(c *fiber.Ctx, v interface{}) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || json.Unmarshal(body, v) != nil {
		return domain.Validation("Invalid JSON payload.")
	}
	return nil
}

// Fields decodes a JSON object body keeping each member raw, so handlers can
// tell an absent member from an explicit null.
func Fields(c *fiber.Ctx) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := Decode(c, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.Validation("Invalid JSON payload.")
	}
	return m, nil
}

// IsNull reports whether a raw member is the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// Query returns a trimmed query value, "" when absent.
func Query(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.Query(key))
}

// ParseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight).
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// PositiveInt reads an optional positive integer query value. Zero is
// returned when the key is absent.
func PositiveInt(c *fiber.Ctx, key string) (int, error) {
	raw := Query(c, key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.Validation("Invalid query parameters.")
	}
	return n, nil
}
