package repository

import (
	"context"
	"fmt"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityAuditLog = "AuditLog"

// AuditFilter narrows AuditLogs.List. OrgID is overridden by the tenant context.
type AuditFilter struct {
	OrgID    uuid.UUID
	Action   string
	EntityID string
	// Cursor is the id of the last entry of the previous page.
	Cursor *uuid.UUID
	Limit  int
}

// AuditLogs is append-only: there is no update or delete.
type AuditLogs struct {
	db *gorm.DB
}

func (r *AuditLogs) Create(ctx context.Context, entry *domain.AuditLog) error {
	if err := scopeCreate(ctx, entityAuditLog, entry.OrgID); err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(entry).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// CreateMany inserts entries in one statement after checking each one.
func (r *AuditLogs) CreateMany(ctx context.Context, entries []*domain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := scopeCreate(ctx, entityAuditLog, e.OrgID); err != nil {
			return err
		}
	}
	if err := database.Conn(ctx, r.db).Create(entries).Error; err != nil {
		return fmt.Errorf("create audit logs: %w", err)
	}
	return nil
}

// List returns entries newest first, ties broken by id.
func (r *AuditLogs) List(ctx context.Context, f AuditFilter) ([]domain.AuditLog, error) {
	org, err := scopeFilter(ctx, entityAuditLog, "list", f.OrgID)
	if err != nil {
		return nil, err
	}
	conn := database.Conn(ctx, r.db)
	q := conn.Where("org_id = ?", org)
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Cursor != nil {
		var last domain.AuditLog
		err := conn.Select("id", "created_at").
			First(&last, "id = ? AND org_id = ?", *f.Cursor, org).Error
		if err != nil {
			if isNotFound(err) {
				return nil, domain.Validation("invalid cursor")
			}
			return nil, fmt.Errorf("resolve audit cursor: %w", err)
		}
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", last.CreatedAt, last.CreatedAt, last.ID)
	}

	var entries []domain.AuditLog
	err = q.Order("created_at DESC").
		Order("id DESC").
		Limit(f.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
