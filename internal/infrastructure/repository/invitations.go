package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityInvitation = "Invitation"

type Invitations struct {
	db *gorm.DB
}

func (r *Invitations) Create(ctx context.Context, inv *domain.Invitation) error {
	if err := scopeCreate(ctx, entityInvitation, inv.OrgID); err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(inv).Error; err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// FindByTokenHash is the one tenant-owned lookup allowed before a tenant is
// known: the bearer of the token learns which org it belongs to from the
// row itself. The key carries no org id, so inside a tenant context it is
// a scope violation like any other unscoped unique lookup.
func (r *Invitations) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	if _, ok := tenancy.OrgID(ctx); ok {
		return nil, violation(ctx, entityInvitation, "findByTokenHash", "token lookup inside a tenant context")
	}
	if tokenHash == "" {
		return nil, domain.NotFound("invitation not found")
	}
	var inv domain.Invitation
	if err := database.Conn(ctx, r.db).First(&inv, "token_hash = ?", tokenHash).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("find invitation by token: %w", err)
	}
	return &inv, nil
}

// FindByID looks up an invitation by its (id, org) key.
func (r *Invitations) FindByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Invitation, error) {
	if err := scopeKey(ctx, entityInvitation, "findByID", orgID); err != nil {
		return nil, err
	}
	var inv domain.Invitation
	if err := database.Conn(ctx, r.db).First(&inv, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("find invitation: %w", err)
	}
	return &inv, nil
}

// List returns every invitation of the org, newest first, terminal ones included.
func (r *Invitations) List(ctx context.Context, orgID uuid.UUID) ([]domain.Invitation, error) {
	org, err := scopeFilter(ctx, entityInvitation, "list", orgID)
	if err != nil {
		return nil, err
	}
	var invs []domain.Invitation
	err = database.Conn(ctx, r.db).
		Where("org_id = ?", org).
		Order("created_at DESC").
		Order("id DESC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invs, nil
}

// FindPendingForEmail returns the org's open invitation for email, if any:
// not accepted, not revoked and not yet expired at now.
func (r *Invitations) FindPendingForEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (*domain.Invitation, error) {
	org, err := scopeFilter(ctx, entityInvitation, "findPendingForEmail", orgID)
	if err != nil {
		return nil, err
	}
	var inv domain.Invitation
	err = database.Conn(ctx, r.db).
		Where("org_id = ? AND email = ?", org, strings.ToLower(strings.TrimSpace(email))).
		Where("accepted_at IS NULL AND revoked_at IS NULL AND expires_at > ?", now.UTC()).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound("invitation not found")
		}
		return nil, fmt.Errorf("find pending invitation: %w", err)
	}
	return &inv, nil
}

// ResolvePending writes fields only while the invitation is neither accepted
// nor revoked. It reports false when another operation resolved it first, so
// two concurrent transitions can never both succeed.
func (r *Invitations) ResolvePending(ctx context.Context, orgID, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	if err := scopeKey(ctx, entityInvitation, "resolve", orgID); err != nil {
		return false, err
	}
	if err := scopeUpdate(ctx, entityInvitation, fields); err != nil {
		return false, err
	}
	res := database.Conn(ctx, r.db).
		Model(&domain.Invitation{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Where("accepted_at IS NULL AND revoked_at IS NULL").
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("resolve invitation: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
