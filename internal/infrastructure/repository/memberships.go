package repository

import (
	"context"
	"fmt"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityMembership = "Membership"

type Memberships struct {
	db *gorm.DB
}

func (r *Memberships) Create(ctx context.Context, m *domain.Membership) error {
	if err := scopeCreate(ctx, entityMembership, m.OrgID); err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.Conflict("user is already a member of this organization")
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

// FindByKey looks up the unique (user, org) membership.
func (r *Memberships) FindByKey(ctx context.Context, orgID, userID uuid.UUID) (*domain.Membership, error) {
	if err := scopeKey(ctx, entityMembership, "findByKey", orgID); err != nil {
		return nil, err
	}
	var m domain.Membership
	err := database.Conn(ctx, r.db).
		First(&m, "org_id = ? AND user_id = ?", orgID, userID).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("membership not found")
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return &m, nil
}

// List returns the org's memberships with their users, oldest first.
func (r *Memberships) List(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error) {
	org, err := scopeFilter(ctx, entityMembership, "list", orgID)
	if err != nil {
		return nil, err
	}
	var ms []domain.Membership
	err = database.Conn(ctx, r.db).
		Preload("User").
		Where("org_id = ?", org).
		Order("created_at ASC").
		Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return ms, nil
}

// Count returns how many memberships the org has, optionally only those
// holding one of roles.
func (r *Memberships) Count(ctx context.Context, orgID uuid.UUID, roles ...domain.Role) (int64, error) {
	org, err := scopeFilter(ctx, entityMembership, "count", orgID)
	if err != nil {
		return 0, err
	}
	q := database.Conn(ctx, r.db).Model(&domain.Membership{}).Where("org_id = ?", org)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count memberships: %w", err)
	}
	return n, nil
}

// Update writes fields on the (user, org) membership.
func (r *Memberships) Update(ctx context.Context, orgID, userID uuid.UUID, fields map[string]interface{}) error {
	if err := scopeKey(ctx, entityMembership, "update", orgID); err != nil {
		return err
	}
	if err := scopeUpdate(ctx, entityMembership, fields); err != nil {
		return err
	}
	res := database.Conn(ctx, r.db).
		Model(&domain.Membership{}).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("membership not found")
	}
	return nil
}
