package bootstrap

import (
	"taskdesk-backend/internal/config"
	"taskdesk-backend/internal/interfaces/router"
	"taskdesk-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for the serverless handler in api/.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.LogLevel, cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
