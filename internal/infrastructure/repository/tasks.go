package repository

import (
	"context"
	"fmt"
	"time"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityTask = "Task"

// TaskDateField selects which column a date range applies to.
type TaskDateField string

const (
	TaskDateCreated TaskDateField = "createdAt"
	TaskDateDue     TaskDateField = "dueDate"
)

// TaskFilter narrows Tasks.List. OrgID is overridden by the tenant context.
type TaskFilter struct {
	OrgID    uuid.UUID
	Status   *domain.TaskStatus
	Assignee domain.Field[uuid.UUID] // Clear matches unassigned tasks
	Search   string
	DateBy   TaskDateField
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type Tasks struct {
	db *gorm.DB
}

func (r *Tasks) Create(ctx context.Context, t *domain.Task) error {
	if err := scopeCreate(ctx, entityTask, t.OrgID); err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(t).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID looks up a task by its (id, org) key. A task of another org
// reads as not found.
func (r *Tasks) FindByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Task, error) {
	if err := scopeKey(ctx, entityTask, "findByID", orgID); err != nil {
		return nil, err
	}
	var t domain.Task
	if err := database.Conn(ctx, r.db).First(&t, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("task not found")
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &t, nil
}

func (r *Tasks) Update(ctx context.Context, orgID, id uuid.UUID, fields map[string]interface{}) error {
	if err := scopeKey(ctx, entityTask, "update", orgID); err != nil {
		return err
	}
	if err := scopeUpdate(ctx, entityTask, fields); err != nil {
		return err
	}
	res := database.Conn(ctx, r.db).
		Model(&domain.Task{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("task not found")
	}
	return nil
}

func (r *Tasks) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if err := scopeKey(ctx, entityTask, "delete", orgID); err != nil {
		return err
	}
	res := database.Conn(ctx, r.db).
		Where("id = ? AND org_id = ?", id, orgID).
		Delete(&domain.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("task not found")
	}
	return nil
}

// List returns one page of matching tasks, newest first, and the total
// number of matches.
func (r *Tasks) List(ctx context.Context, f TaskFilter) ([]domain.Task, int64, error) {
	org, err := scopeFilter(ctx, entityTask, "list", f.OrgID)
	if err != nil {
		return nil, 0, err
	}

	filtered := func() *gorm.DB {
		q := database.Conn(ctx, r.db).Model(&domain.Task{}).Where("org_id = ?", org)
		if f.Status != nil {
			q = q.Where("status = ?", *f.Status)
		}
		switch {
		case f.Assignee.IsClear():
			q = q.Where("assigned_to_id IS NULL")
		case f.Assignee.IsSet():
			id, _ := f.Assignee.Value()
			q = q.Where("assigned_to_id = ?", id)
		}
		if f.Search != "" {
			p := containsPattern(f.Search)
			q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, p, p)
		}
		col := "created_at"
		if f.DateBy == TaskDateDue {
			col = "due_date"
		}
		if f.From != nil {
			q = q.Where(col+" >= ?", f.From.UTC())
		}
		if f.To != nil {
			q = q.Where(col+" <= ?", f.To.UTC())
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	var items []domain.Task
	err = filtered().Order("created_at DESC").
		Order("id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	return items, total, nil
}
