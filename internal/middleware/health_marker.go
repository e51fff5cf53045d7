package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"taskdesk-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthMarker records request stats in Redis (skip /, /health*, favicon).
// Responses with status >= 500 are also pushed onto the error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		ctx := c.UserContext()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start.UTC(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		pipe := rdb.Pipeline()
		pipe.Set(ctx, health.KeyLastReq, b, 0)
		pipe.Incr(ctx, health.KeyReqTotal)
		_, _ = pipe.Exec(ctx)

		err := c.Next()
		if err != nil {
			// run the error handler now so the recorded status is final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ms := time.Since(start).Milliseconds()
		pipe = rdb.Pipeline()
		pipe.Incr(ctx, health.KeyResCount)
		pipe.IncrByFloat(ctx, health.KeyResTime, float64(ms))
		if status >= fiber.StatusInternalServerError {
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now().UTC(),
				"method":   c.Method(),
				"path":     c.OriginalURL(),
				"status":   status,
				"trace_id": GetTraceID(c),
			})
			pipe.Incr(ctx, health.KeyReqErrors)
			pipe.LPush(ctx, health.KeyErrorLog, entry)
			pipe.LTrim(ctx, health.KeyErrorLog, 0, health.ErrorLogSize-1)
		}
		_, _ = pipe.Exec(ctx)
		return nil
	}
}
