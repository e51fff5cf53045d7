// Package tasks implements the task service and its role/ownership rules:
//
//	         ADMIN  MANAGER  MEMBER
//	create   yes    yes      yes
//	update   any    any      own (creator or assignee)
//	delete   yes    yes      no
package tasks

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/application/audit"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	createRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleMember}
	manageRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager}
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

type Service struct {
	DB     *gorm.DB
	Repos  *repository.Repositories
	Access *access.Service
	Audit  *audit.Service
	Now    func() time.Time
}

type CreateInput struct {
	Title        string
	Description  *string
	Status       *domain.TaskStatus
	Priority     *domain.TaskPriority
	AssignedToID *uuid.UUID
	DueDate      *time.Time
}

// UpdateInput fields default to Unchanged.
type UpdateInput struct {
	Title       domain.Field[string]
	Description domain.Field[string]
	Status      domain.Field[domain.TaskStatus]
	Priority    domain.Field[domain.TaskPriority]
	AssignedTo  domain.Field[uuid.UUID]
	DueDate     domain.Field[time.Time]
}

type ListInput struct {
	Page     int
	PageSize int
	Status   *domain.TaskStatus
	Assignee domain.Field[uuid.UUID] // Clear lists unassigned tasks
	Search   string
	DateBy   repository.TaskDateField
	From     *time.Time
	To       *time.Time
}

type ListResult struct {
	Items      []domain.Task `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// Change is the before/after pair of one field.
type Change struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if !validation.LengthBetween(title, 2, 200) {
		return "", domain.Validation("Title must be between 2 and 200 characters.")
	}
	return title, nil
}

// normalizeDescription trims s; blank becomes nil.
func normalizeDescription(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*s)
	if d == "" {
		return nil, nil
	}
	if !validation.LengthBetween(d, 0, 2000) {
		return nil, domain.Validation("Description must be at most 2000 characters.")
	}
	return &d, nil
}

func (s *Service) checkAssignee(ctx context.Context, orgID uuid.UUID, assignee *uuid.UUID) error {
	if assignee == nil {
		return nil
	}
	if _, err := s.Repos.Memberships.FindByKey(ctx, orgID, *assignee); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Validation("Assignee must be a member of this organization.")
		}
		return err
	}
	return nil
}

// Create adds a task to orgID. Status defaults to TODO, priority to MEDIUM.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, in CreateInput) (*domain.Task, error) {
	ctx, actor, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if !domain.HasRole(actor.Role, createRoles...) {
		return nil, domain.Forbidden("Not allowed to create tasks.")
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}
	status := domain.TaskTodo
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, domain.Validation("Invalid status.")
		}
		status = *in.Status
	}
	priority := domain.PriorityMedium
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, domain.Validation("Invalid priority.")
		}
		priority = *in.Priority
	}
	if err := s.checkAssignee(ctx, orgID, in.AssignedToID); err != nil {
		return nil, err
	}

	t := &domain.Task{
		OrgID:        orgID,
		Title:        title,
		Description:  desc,
		Status:       status,
		Priority:     priority,
		AssignedToID: in.AssignedToID,
		DueDate:      utcPtr(in.DueDate),
		CreatedByID:  actorID,
		CreatedAt:    s.now(),
	}
	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		if err := s.Repos.Tasks.Create(ctx, t); err != nil {
			return err
		}
		_, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionTaskCreated,
			EntityType: domain.EntityTask,
			EntityID:   t.ID.String(),
			Metadata:   map[string]interface{}{"title": t.Title},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one task. Any member may read it.
func (s *Service) Get(ctx context.Context, orgID, actorID, taskID uuid.UUID) (*domain.Task, error) {
	ctx, _, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	t, err := s.Repos.Tasks.FindByID(ctx, orgID, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Task not found.")
		}
		return nil, err
	}
	return t, nil
}

// Update applies in to a task. A MEMBER may only touch tasks they created
// or are assigned to. Every call records task.updated with the changed
// fields; a status change additionally records task.status.changed.
func (s *Service) Update(ctx context.Context, orgID, actorID, taskID uuid.UUID, in UpdateInput) (*domain.Task, error) {
	ctx, actor, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Task
	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		existing, err := s.Repos.Tasks.FindByID(ctx, orgID, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Task not found.")
			}
			return err
		}
		if actor.Role == domain.RoleMember && !ownedBy(existing, actorID) {
			return domain.Forbidden("Not allowed to update this task.")
		}

		fields, changes, err := s.diff(ctx, existing, in)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := s.Repos.Tasks.Update(ctx, orgID, taskID, fields); err != nil {
				return err
			}
		}

		changed := make([]string, 0, len(changes))
		for _, f := range fieldOrder {
			if _, ok := changes[f]; ok {
				changed = append(changed, f)
			}
		}
		entries := []audit.Entry{{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionTaskUpdated,
			EntityType: domain.EntityTask,
			EntityID:   taskID.String(),
			Metadata:   map[string]interface{}{"changedFields": changed, "changes": changes},
		}}
		if c, ok := changes["status"]; ok {
			entries = append(entries, audit.Entry{
				OrgID:      orgID,
				ActorID:    &actorID,
				Action:     domain.ActionTaskStatusChanged,
				EntityType: domain.EntityTask,
				EntityID:   taskID.String(),
				Metadata:   map[string]interface{}{"priorStatus": c.From, "newStatus": c.To},
			})
		}
		if _, err := s.Audit.RecordMany(ctx, entries...); err != nil {
			return err
		}

		updated, err = s.Repos.Tasks.FindByID(ctx, orgID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task. ADMIN and MANAGER only.
func (s *Service) Delete(ctx context.Context, orgID, actorID, taskID uuid.UUID) error {
	ctx, actor, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	return database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		existing, err := s.Repos.Tasks.FindByID(ctx, orgID, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Task not found.")
			}
			return err
		}
		if !domain.HasRole(actor.Role, manageRoles...) {
			return domain.Forbidden("Not allowed to delete tasks.")
		}
		if err := s.Repos.Tasks.Delete(ctx, orgID, taskID); err != nil {
			return err
		}
		_, err = s.Audit.Record(ctx, audit.Entry{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionTaskDeleted,
			EntityType: domain.EntityTask,
			EntityID:   taskID.String(),
			Metadata:   map[string]interface{}{"title": existing.Title},
		})
		return err
	})
}

// List returns one page of the org's tasks, newest first.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID, in ListInput) (*ListResult, error) {
	ctx, _, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.Validation("Invalid status.")
	}

	items, total, err := s.Repos.Tasks.List(ctx, repository.TaskFilter{
		OrgID:    orgID,
		Status:   in.Status,
		Assignee: in.Assignee,
		Search:   strings.TrimSpace(in.Search),
		DateBy:   in.DateBy,
		From:     in.From,
		To:       in.To,
		Limit:    size,
		Offset:   (page - 1) * size,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Task{}
	}
	pages := int(math.Ceil(float64(total) / float64(size)))
	if pages < 1 {
		pages = 1
	}
	return &ListResult{Items: items, Page: page, PageSize: size, Total: total, TotalPages: pages}, nil
}

func ownedBy(t *domain.Task, userID uuid.UUID) bool {
	if t.CreatedByID == userID {
		return true
	}
	return t.AssignedToID != nil && *t.AssignedToID == userID
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
