package database

import (
	"strings"

	"taskdesk-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN. Postgres URLs go through the pgx driver with
// PreferSimpleProtocol, which avoids 42P05 ("prepared statement already exists")
// behind poolers such as PgBouncer. DSNs starting with "file:" or "sqlite:"
// open a local SQLite database for development.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), cfg)
	case strings.HasPrefix(dsn, "file:"):
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Organization{},
		&domain.Membership{},
		&domain.Invitation{},
		&domain.Task{},
		&domain.AuditLog{},
	}
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
