// Package audit writes and reads the append-only audit trail.
//
// Record joins the caller's transaction when ctx carries one, so an audit
// entry commits or rolls back together with the mutation it documents.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Entry describes one action to record.
type Entry struct {
	OrgID      uuid.UUID
	ActorID    *uuid.UUID // nil for system-initiated actions
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
}

type Service struct {
	Logs   *repository.AuditLogs
	Access *access.Service
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) build(ctx context.Context, e Entry) (*domain.AuditLog, error) {
	row := &domain.AuditLog{
		OrgID:     e.OrgID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		CreatedAt: s.now(),
	}
	if e.EntityType != "" {
		row.EntityType = &e.EntityType
	}
	if e.EntityID != "" {
		row.EntityID = &e.EntityID
	}
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode audit metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(b)
	}
	if p, ok := ProvenanceFrom(ctx); ok {
		if p.IP != "" {
			ip := p.IP
			row.IP = &ip
		}
		if p.UserAgent != "" {
			ua := p.UserAgent
			row.UserAgent = &ua
		}
	}
	return row, nil
}

// Record inserts one entry.
func (s *Service) Record(ctx context.Context, e Entry) (*domain.AuditLog, error) {
	row, err := s.build(ctx, e)
	if err != nil {
		return nil, err
	}
	if err := s.Logs.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// RecordMany inserts entries in one statement, in the given order.
func (s *Service) RecordMany(ctx context.Context, entries ...Entry) ([]*domain.AuditLog, error) {
	rows := make([]*domain.AuditLog, 0, len(entries))
	for _, e := range entries {
		row, err := s.build(ctx, e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := s.Logs.CreateMany(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Page is one slice of the audit trail. NextCursor is set when the page is
// full and more entries may follow.
type Page struct {
	Items      []domain.AuditLog `json:"items"`
	NextCursor *uuid.UUID        `json:"nextCursor"`
}

// ListInput narrows List.
type ListInput struct {
	Cursor   *uuid.UUID
	Limit    int
	Action   string
	EntityID string
}

// List returns the org's audit trail, newest first. ADMIN and MANAGER only.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID, in ListInput) (*Page, error) {
	ctx, _, err := s.Access.RequireRole(ctx, orgID, actorID, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return nil, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	items, err := s.Logs.List(ctx, repository.AuditFilter{
		OrgID:    orgID,
		Action:   in.Action,
		EntityID: in.EntityID,
		Cursor:   in.Cursor,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}
	page := &Page{Items: items}
	if len(items) == limit {
		last := items[len(items)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}
