package repository

import (
	"context"
	"fmt"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Orgs is not tenant-owned: an organization is the tenant itself.
type Orgs struct {
	db *gorm.DB
}

func (r *Orgs) Create(ctx context.Context, o *domain.Organization) error {
	if err := database.Conn(ctx, r.db).Create(o).Error; err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (r *Orgs) FindByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var o domain.Organization
	if err := database.Conn(ctx, r.db).First(&o, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("organization not found")
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &o, nil
}

// ListForUser returns the organizations userID belongs to, newest first.
// It reads organizations, not memberships, so it needs no tenant context;
// the membership subquery only ever matches the caller's own rows.
func (r *Orgs) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	conn := database.Conn(ctx, r.db)
	mine := conn.Model(&domain.Membership{}).Select("org_id").Where("user_id = ?", userID)

	var orgs []domain.Organization
	err := conn.
		Where("id IN (?)", mine).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}
