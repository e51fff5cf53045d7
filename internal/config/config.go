package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string // postgres URL, or file:/sqlite: for a local SQLite file
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // Brevo key for invitation and welcome emails
	MailFrom            string
	InviteBaseURL       string // frontend origin for invite links
	InviteTTLDays       int
	LogLevel            string
	AuthRateLimit       float64 // requests per second per client on auth endpoints
	AuthRateBurst       int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("INVITE_BASE_URL", "http://localhost:3000")
	v.SetDefault("INVITE_TTL_DAYS", 7)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_RATE_LIMIT", 5)
	v.SetDefault("AUTH_RATE_BURST", 10)

	cfg := &Config{
		Env:                 strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		InviteBaseURL:       strings.TrimRight(strings.TrimSpace(v.GetString("INVITE_BASE_URL")), "/"),
		InviteTTLDays:       v.GetInt("INVITE_TTL_DAYS"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		AuthRateLimit:       v.GetFloat64("AUTH_RATE_LIMIT"),
		AuthRateBurst:       v.GetInt("AUTH_RATE_BURST"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "test", "production":
	default:
		return fmt.Errorf("config: unknown APP_ENV %q", c.Env)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("config: REDIS_URL is required")
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required in production")
	}
	if c.InviteTTLDays < 1 || c.InviteTTLDays > 30 {
		return fmt.Errorf("config: INVITE_TTL_DAYS must be between 1 and 30, got %d", c.InviteTTLDays)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("config: AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	return nil
}
