package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/application/audit"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database/dbtest"
	"taskdesk-backend/internal/infrastructure/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db      *gorm.DB
	svc     *Service
	org     *domain.Organization
	admin   *domain.User
	manager *domain.User
	member  *domain.User
	other   *domain.User
}

func setup(t *testing.T) env {
	db := dbtest.New(t)
	repos := repository.New(db)
	clock := dbtest.NewClock()
	acc := &access.Service{Memberships: repos.Memberships}
	svc := &Service{
		DB:     db,
		Repos:  repos,
		Access: acc,
		Audit:  &audit.Service{Logs: repos.AuditLogs, Access: acc, Now: clock.Now},
		Now:    clock.Now,
	}
	admin := dbtest.SeedUser(t, db, "admin@example.com")
	manager := dbtest.SeedUser(t, db, "manager@example.com")
	member := dbtest.SeedUser(t, db, "member@example.com")
	other := dbtest.SeedUser(t, db, "other@example.com")
	org := dbtest.SeedOrg(t, db, admin, "Acme")
	dbtest.SeedMember(t, db, org.ID, manager.ID, domain.RoleManager)
	dbtest.SeedMember(t, db, org.ID, member.ID, domain.RoleMember)
	dbtest.SeedMember(t, db, org.ID, other.ID, domain.RoleMember)
	return env{db: db, svc: svc, org: org, admin: admin, manager: manager, member: member, other: other}
}

func strPtr(s string) *string { return &s }

func auditRows(t *testing.T, db *gorm.DB, action string, entityID uuid.UUID) []domain.AuditLog {
	var rows []domain.AuditLog
	require.NoError(t, db.Where("action = ? AND entity_id = ?", action, entityID.String()).Find(&rows).Error)
	return rows
}

func TestCreate_Defaults(t *testing.T) {
	e := setup(t)

	task, err := e.svc.Create(context.Background(), e.org.ID, e.member.ID, CreateInput{
		Title:       "  Write report ",
		Description: strPtr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Nil(t, task.Description)
	assert.Equal(t, domain.TaskTodo, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, e.member.ID, task.CreatedByID)
	assert.Len(t, auditRows(t, e.db, domain.ActionTaskCreated, task.ID), 1)
}

func TestCreate_Validation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, e.org.ID, e.member.ID, CreateInput{Title: " x "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stranger := dbtest.SeedUser(t, e.db, "stranger@example.com")
	_, err = e.svc.Create(ctx, e.org.ID, e.member.ID, CreateInput{Title: "Valid", AssignedToID: &stranger.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = e.svc.Create(ctx, e.org.ID, stranger.ID, CreateInput{Title: "Valid"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_StatusChangeEmitsBothEvents(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	task, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{Title: "Ship it"})
	require.NoError(t, err)

	updated, err := e.svc.Update(ctx, e.org.ID, e.admin.ID, task.ID, UpdateInput{Status: domain.Set(domain.TaskDone)})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, updated.Status)

	upd := auditRows(t, e.db, domain.ActionTaskUpdated, task.ID)
	require.Len(t, upd, 1)
	var meta struct {
		ChangedFields []string          `json:"changedFields"`
		Changes       map[string]Change `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(upd[0].Metadata, &meta))
	assert.Equal(t, []string{"status"}, meta.ChangedFields)
	assert.Equal(t, "TODO", meta.Changes["status"].From)
	assert.Equal(t, "DONE", meta.Changes["status"].To)

	sc := auditRows(t, e.db, domain.ActionTaskStatusChanged, task.ID)
	require.Len(t, sc, 1)
	var status map[string]string
	require.NoError(t, json.Unmarshal(sc[0].Metadata, &status))
	assert.Equal(t, "TODO", status["priorStatus"])
	assert.Equal(t, "DONE", status["newStatus"])
}

func TestUpdate_TriStateFields(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{
		Title:        "Plan",
		Description:  strPtr("details"),
		AssignedToID: &e.member.ID,
		DueDate:      &due,
	})
	require.NoError(t, err)

	// Unchanged fields stay, cleared fields go null.
	updated, err := e.svc.Update(ctx, e.org.ID, e.admin.ID, task.ID, UpdateInput{
		Description: domain.Clear[string](),
		AssignedTo:  domain.Clear[uuid.UUID](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Nil(t, updated.AssignedToID)
	require.NotNil(t, updated.DueDate)
	assert.True(t, due.Equal(*updated.DueDate))

	upd := auditRows(t, e.db, domain.ActionTaskUpdated, task.ID)
	require.Len(t, upd, 1)
	var meta struct {
		ChangedFields []string `json:"changedFields"`
	}
	require.NoError(t, json.Unmarshal(upd[0].Metadata, &meta))
	assert.Equal(t, []string{"description", "assignedToUserId"}, meta.ChangedFields)
	assert.Empty(t, auditRows(t, e.db, domain.ActionTaskStatusChanged, task.ID))

	_, err = e.svc.Update(ctx, e.org.ID, e.admin.ID, task.ID, UpdateInput{Title: domain.Clear[string]()})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdate_MemberOwnership(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	mine, err := e.svc.Create(ctx, e.org.ID, e.member.ID, CreateInput{Title: "Mine"})
	require.NoError(t, err)
	assigned, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{Title: "Assigned", AssignedToID: &e.member.ID})
	require.NoError(t, err)
	foreign, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{Title: "Foreign"})
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, e.org.ID, e.member.ID, mine.ID, UpdateInput{Title: domain.Set("Mine, edited")})
	assert.NoError(t, err)
	_, err = e.svc.Update(ctx, e.org.ID, e.member.ID, assigned.ID, UpdateInput{Priority: domain.Set(domain.PriorityHigh)})
	assert.NoError(t, err)

	_, err = e.svc.Update(ctx, e.org.ID, e.member.ID, foreign.ID, UpdateInput{Title: domain.Set("Hijacked")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, auditRows(t, e.db, domain.ActionTaskUpdated, foreign.ID))

	_, err = e.svc.Update(ctx, e.org.ID, e.manager.ID, foreign.ID, UpdateInput{Title: domain.Set("Managed")})
	assert.NoError(t, err)
}

func TestUpdate_OtherOrgTaskIsNotFound(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	globex := dbtest.SeedOrg(t, e.db, e.admin, "Globex")
	task, err := e.svc.Create(ctx, globex.ID, e.admin.ID, CreateInput{Title: "Secret"})
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, e.org.ID, e.admin.ID, task.ID, UpdateInput{Title: domain.Set("Leak")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.svc.Get(ctx, e.org.ID, e.admin.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = e.svc.Delete(ctx, e.org.ID, e.admin.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	task, err := e.svc.Create(ctx, e.org.ID, e.member.ID, CreateInput{Title: "Temporary"})
	require.NoError(t, err)

	err = e.svc.Delete(ctx, e.org.ID, e.member.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, e.svc.Delete(ctx, e.org.ID, e.manager.ID, task.ID))
	rows := auditRows(t, e.db, domain.ActionTaskDeleted, task.ID)
	require.Len(t, rows, 1)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(rows[0].Metadata, &meta))
	assert.Equal(t, "Temporary", meta["title"])

	_, err = e.svc.Get(ctx, e.org.ID, e.admin.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = e.svc.Delete(ctx, e.org.ID, e.admin.ID, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{Title: fmt.Sprintf("Task %02d", i)})
		require.NoError(t, err)
	}
	report, err := e.svc.Create(ctx, e.org.ID, e.admin.ID, CreateInput{
		Title:        "Quarterly Report",
		AssignedToID: &e.member.ID,
	})
	require.NoError(t, err)
	_, err = e.svc.Update(ctx, e.org.ID, e.admin.ID, report.ID, UpdateInput{Status: domain.Set(domain.TaskDone)})
	require.NoError(t, err)

	res, err := e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.PageSize)
	assert.Equal(t, int64(26), res.Total)
	assert.Equal(t, 2, res.TotalPages)
	require.Len(t, res.Items, 20)
	assert.Equal(t, report.ID, res.Items[0].ID)

	res, err = e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, res.PageSize)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.TotalPages)

	done := domain.TaskDone
	res, err = e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{Status: &done})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	for _, it := range res.Items {
		assert.Equal(t, domain.TaskDone, it.Status)
	}

	res, err = e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{Search: "REPORT"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, report.ID, res.Items[0].ID)

	res, err = e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{Assignee: domain.Clear[uuid.UUID](), PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Total)

	res, err = e.svc.List(ctx, e.org.ID, e.member.ID, ListInput{Assignee: domain.Set(e.member.ID)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	empty := dbtest.SeedOrg(t, e.db, e.other, "Empty")
	res, err = e.svc.List(ctx, empty.ID, e.other.ID, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.NotNil(t, res.Items)
}
