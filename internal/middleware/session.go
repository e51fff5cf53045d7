package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig controls the session cookie flags.
type SessionConfig struct {
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "taskdesk.sid"
	SessionRedisPrefix = "session:"
	UserSessionsPrefix = "user_sessions:"
	sessionMaxAge      = 24 * time.Hour

	sessionIDLocal        = "session_id"
	sessionDestroyedLocal = "session_destroyed"
)

// SessionUser is the identity stored in a session. Roles are not cached
// here: they are per organization and are read on every request.
type SessionUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type sessionData struct {
	User      *SessionUser `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// Session returns a Fiber middleware that loads the session from Redis and
// saves it back after the handler ran, refreshing its TTL.
func Session(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = ""
		}

		var data sessionData
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			switch {
			case err == nil:
				_ = json.Unmarshal(b, &data)
			case err != redis.Nil:
				log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("session load failed")
			}
		}
		c.Locals(sessionIDLocal, sessionID)
		c.Locals(userLocal, data.User)

		err := c.Next()

		if destroyed, _ := c.Locals(sessionDestroyedLocal).(string); destroyed != "" {
			rdb.Del(c.UserContext(), SessionRedisPrefix+destroyed)
		}
		sid, _ := c.Locals(sessionIDLocal).(string)
		user, _ := c.Locals(userLocal).(*SessionUser)
		if sid == "" || user == nil {
			return err
		}
		if data.CreatedAt.IsZero() || sid != sessionID {
			data.CreatedAt = time.Now().UTC()
		}
		data.User = user
		b, _ := json.Marshal(data)
		if serr := rdb.Set(c.UserContext(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); serr != nil {
			log.Warn().Err(serr).Str("trace_id", GetTraceID(c)).Msg("session save failed")
		}
		return err
	}
}

// GetSessionID returns the current session ID.
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// StartSession signs user in under a fresh session id, dropping any previous
// session, and sets the cookie.
func StartSession(c *fiber.Ctx, cfg SessionConfig, user SessionUser) string {
	if old := GetSessionID(c); old != "" {
		c.Locals(sessionDestroyedLocal, old)
	}
	sid := uuid.New().String()
	c.Locals(sessionIDLocal, sid)
	c.Locals(userLocal, &user)

	cookie := SessionCookieConfig(cfg)
	cookie.Value = sid
	c.Cookie(&cookie)
	return sid
}

// DestroySession signs the user out, deletes the stored session and
// expires the cookie.
func DestroySession(c *fiber.Ctx, cfg SessionConfig) {
	if sid := GetSessionID(c); sid != "" {
		c.Locals(sessionDestroyedLocal, sid)
	}
	c.Locals(sessionIDLocal, "")
	c.Locals(userLocal, (*SessionUser)(nil))

	cookie := SessionCookieConfig(cfg)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(&cookie)
}

// SessionCookieConfig returns the session cookie options.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.AllowCrossSiteDev {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

// CookieKey derives the encryptcookie key from the session secret.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// TrackSession records sid in the user's session index.
func TrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SAdd(ctx, UserSessionsPrefix+userID, sid).Err()
}

// UntrackSession removes sid from the user's session index.
func UntrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) error {
	return rdb.SRem(ctx, UserSessionsPrefix+userID, sid).Err()
}

// DestroyUserSessions deletes every session recorded for userID together
// with the index itself.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) error {
	if userID == "" {
		return nil
	}
	key := UserSessionsPrefix + userID
	sids, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(sids)+1)
	for _, sid := range sids {
		keys = append(keys, SessionRedisPrefix+sid)
	}
	keys = append(keys, key)
	return rdb.Del(ctx, keys...).Err()
}
