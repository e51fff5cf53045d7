package members

import (
	"context"
	"encoding/json"
	"testing"

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

func newService(db *gorm.DB) *Service {
	repos := repository.New(db)
	acc := &access.Service{Memberships: repos.Memberships}
	return &Service{
		DB:     db,
		Repos:  repos,
		Access: acc,
		Audit:  &audit.Service{Logs: repos.AuditLogs, Access: acc, Now: dbtest.NewClock().Now},
	}
}

func TestListMembers(t *testing.T) {
	db := dbtest.New(t)
	svc := newService(db)
	admin := dbtest.SeedUser(t, db, "admin@example.com")
	manager := dbtest.SeedUser(t, db, "manager@example.com")
	member := dbtest.SeedUser(t, db, "member@example.com")
	outsider := dbtest.SeedUser(t, db, "outsider@example.com")
	org := dbtest.SeedOrg(t, db, admin, "Acme")
	dbtest.SeedMember(t, db, org.ID, manager.ID, domain.RoleManager)
	dbtest.SeedMember(t, db, org.ID, member.ID, domain.RoleMember)
	dbtest.SeedOrg(t, db, outsider, "Globex")

	roster, err := svc.ListMembers(context.Background(), org.ID, manager.ID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	emails := []string{roster[0].Email, roster[1].Email, roster[2].Email}
	assert.ElementsMatch(t, []string{"admin@example.com", "manager@example.com", "member@example.com"}, emails)

	_, err = svc.ListMembers(context.Background(), org.ID, member.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.ListMembers(context.Background(), org.ID, outsider.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestChangeRole_AuditsPriorAndNewRole(t *testing.T) {
	db := dbtest.New(t)
	svc := newService(db)
	admin := dbtest.SeedUser(t, db, "admin@example.com")
	member := dbtest.SeedUser(t, db, "member@example.com")
	org := dbtest.SeedOrg(t, db, admin, "Acme")
	dbtest.SeedMember(t, db, org.ID, member.ID, domain.RoleMember)

	m, err := svc.ChangeRole(context.Background(), org.ID, admin.ID, member.ID, domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, m.Role)

	var stored domain.Membership
	require.NoError(t, db.First(&stored, "org_id = ? AND user_id = ?", org.ID, member.ID).Error)
	assert.Equal(t, domain.RoleManager, stored.Role)

	var logs []domain.AuditLog
	require.NoError(t, db.Where("action = ?", domain.ActionMemberRoleUpdated).Find(&logs).Error)
	require.Len(t, logs, 1)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(logs[0].Metadata, &meta))
	assert.Equal(t, "MEMBER", meta["priorRole"])
	assert.Equal(t, "MANAGER", meta["newRole"])
	assert.Equal(t, member.ID.String(), meta["memberUserId"])
}

func TestChangeRole_Failures(t *testing.T) {
	db := dbtest.New(t)
	svc := newService(db)
	admin := dbtest.SeedUser(t, db, "admin@example.com")
	manager := dbtest.SeedUser(t, db, "manager@example.com")
	org := dbtest.SeedOrg(t, db, admin, "Acme")
	dbtest.SeedMember(t, db, org.ID, manager.ID, domain.RoleManager)
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, org.ID, manager.ID, admin.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ChangeRole(ctx, org.ID, admin.ID, uuid.New(), domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ChangeRole(ctx, org.ID, admin.ID, manager.ID, "OWNER")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ChangeRole(ctx, org.ID, admin.ID, admin.ID, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var n int64
	require.NoError(t, db.Model(&domain.AuditLog{}).Count(&n).Error)
	assert.Zero(t, n)
}
