package policies

import (
	"context"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"
)

// ValidateRoleChange rejects changes that would leave the org without an
// admin. ctx must be scoped to target's org.
func ValidateRoleChange(ctx context.Context, memberships *repository.Memberships, target *domain.Membership, newRole domain.Role) error {
	if !newRole.Valid() {
		return domain.Validation("Role must be one of ADMIN, MANAGER, MEMBER.")
	}
	if target.Role != domain.RoleAdmin || newRole == domain.RoleAdmin {
		return nil
	}
	admins, err := memberships.Count(ctx, target.OrgID, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return domain.Conflict("Organization must have at least one admin.")
	}
	return nil
}
