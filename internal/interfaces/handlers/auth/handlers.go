package auth

import (
	"errors"
	"strings"

	usersvc "taskdesk-backend/internal/application/user"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/interfaces/handlers/request"
	"taskdesk-backend/internal/middleware"
	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Users  *usersvc.Service
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// RegisterRequest body.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Password string  `json:"password"`
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /api/v1/auth/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}
	u, err := h.Users.CreateUser(c.UserContext(), usersvc.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Account created", fiber.Map{"user": u}, nil)
}

// Login POST /api/v1/auth/login: verify credentials, start a fresh session
// and track it under user_sessions:<user_id>.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := request.Decode(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	u, err := h.Users.Authenticate(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return response.Unauthorized(c, err.Error())
		}
		return err
	}

	sessionID := middleware.StartSession(c, h.Config, middleware.SessionUser{
		UserID: u.ID.String(),
		Email:  u.Email,
	})
	if err := middleware.TrackSession(c.UserContext(), h.Rdb, u.ID.String(), sessionID); err != nil {
		log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("session tracking failed")
	}

	return response.Success(c, "Login successful", fiber.Map{"user": u}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	u, err := h.Users.Get(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.Unauthorized(c, "Not authenticated")
		}
		return err
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": u}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	if su := middleware.GetUser(c); su != nil && sessionID != "" {
		_ = middleware.UntrackSession(c.UserContext(), h.Rdb, su.UserID, sessionID)
	}
	middleware.DestroySession(c, h.Config)
	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions signs the user out on every device.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	su := middleware.GetUser(c)
	if err := middleware.DestroyUserSessions(c.UserContext(), h.Rdb, su.UserID); err != nil {
		return err
	}
	middleware.DestroySession(c, h.Config)
	return response.Success(c, "Signed out of all sessions", nil, nil)
}
