package router

import (
	"context"
	"time"

	"taskdesk-backend/internal/application/access"
	auditsvc "taskdesk-backend/internal/application/audit"
	emailsvc "taskdesk-backend/internal/application/emails"
	healthsvc "taskdesk-backend/internal/application/health"
	invsvc "taskdesk-backend/internal/application/invitations"
	membersvc "taskdesk-backend/internal/application/members"
	orgsvc "taskdesk-backend/internal/application/org"
	tasksvc "taskdesk-backend/internal/application/tasks"
	usersvc "taskdesk-backend/internal/application/user"
	"taskdesk-backend/internal/config"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/infrastructure/repository"
	audithandler "taskdesk-backend/internal/interfaces/handlers/audit"
	authhandler "taskdesk-backend/internal/interfaces/handlers/auth"
	healthhandler "taskdesk-backend/internal/interfaces/handlers/health"
	invhandler "taskdesk-backend/internal/interfaces/handlers/invitations"
	memberhandler "taskdesk-backend/internal/interfaces/handlers/members"
	orghandler "taskdesk-backend/internal/interfaces/handlers/org"
	taskhandler "taskdesk-backend/internal/interfaces/handlers/tasks"
	"taskdesk-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Deps are the already-connected resources the app is built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Rdb    *redis.Client
	Mail   emailsvc.Sender
	// Now overrides the service clocks; nil means time.Now.
	Now func() time.Time
	// BcryptCost overrides bcrypt.DefaultCost when non-zero.
	BcryptCost int
}

// CreateApp connects to Postgres and Redis from cfg, migrates the schema and
// returns the Fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, nil, err
	}

	app := New(Deps{
		Config: cfg,
		DB:     db,
		Rdb:    rdb,
		Mail:   &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
	})
	return app, db, rdb, nil
}

// New wires services, middleware and routes.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(d.Rdb))
	if cfg.SessionSecret != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{
			Key: middleware.CookieKey(cfg.SessionSecret),
		}))
	}
	app.Use(middleware.Session(d.Rdb))
	app.Use(middleware.Provenance())

	// services
	repos := repository.New(d.DB)
	acc := &access.Service{Memberships: repos.Memberships}
	audit := &auditsvc.Service{Logs: repos.AuditLogs, Access: acc, Now: d.Now}
	users := &usersvc.Service{Users: repos.Users, Mail: d.Mail, Cost: d.BcryptCost}
	orgs := &orgsvc.Service{DB: d.DB, Repos: repos, Access: acc, Audit: audit, Now: d.Now}
	members := &membersvc.Service{DB: d.DB, Repos: repos, Access: acc, Audit: audit}
	invites := &invsvc.Service{
		DB:          d.DB,
		Repos:       repos,
		Access:      acc,
		Audit:       audit,
		Mail:        d.Mail,
		BaseURL:     cfg.InviteBaseURL,
		DefaultDays: cfg.InviteTTLDays,
		Now:         d.Now,
	}
	tasks := &tasksvc.Service{DB: d.DB, Repos: repos, Access: acc, Audit: audit, Now: d.Now}
	health := &healthsvc.Service{Rdb: d.Rdb, DB: &gormDBPinger{db: d.DB}, ServiceName: "taskdesk-api", Now: d.Now}

	authLimit := middleware.NewRateLimiter(middleware.IPKeyFunc, rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst).Handler()
	requireAuth := middleware.RequireAuth()

	hh := &healthhandler.Handlers{Service: health, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	ah := &authhandler.Handlers{Users: users, Rdb: d.Rdb, Config: sessionCfg}
	ag := api.Group("/auth")
	ag.Post("/register", authLimit, ah.Register)
	ag.Post("/login", authLimit, ah.Login)
	ag.Get("/me", requireAuth, ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Delete("/sessions", requireAuth, ah.LogoutAll)

	oh := &orghandler.Handlers{Service: orgs}
	mh := &memberhandler.Handlers{Service: members}
	ih := &invhandler.Handlers{Service: invites}
	th := &taskhandler.Handlers{Service: tasks}
	audh := &audithandler.Handlers{Service: audit}

	og := api.Group("/orgs", requireAuth)
	og.Get("/", oh.ListOrgs)
	og.Post("/", oh.CreateOrg)
	og.Get("/:orgId", oh.ViewOrg)

	og.Get("/:orgId/members", mh.ListMembers)
	og.Patch("/:orgId/members/:userId", mh.ChangeRole)

	og.Get("/:orgId/invitations", ih.ListOrgInvitations)
	og.Post("/:orgId/invitations", ih.SendInvite)
	og.Post("/:orgId/invitations/:inviteId/revoke", ih.RevokeInvite)

	og.Get("/:orgId/tasks", th.ListTasks)
	og.Post("/:orgId/tasks", th.CreateTask)
	og.Get("/:orgId/tasks/:taskId", th.GetTask)
	og.Patch("/:orgId/tasks/:taskId", th.UpdateTask)
	og.Delete("/:orgId/tasks/:taskId", th.DeleteTask)

	og.Get("/:orgId/audit", audh.ListAudit)

	ig := api.Group("/invitations")
	ig.Post("/check", authLimit, ih.CheckToken)
	ig.Post("/accept", authLimit, requireAuth, ih.AcceptInvite)

	return app
}
