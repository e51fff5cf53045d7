// Package access resolves a caller's membership in an organization and
// establishes the tenant context for the rest of the operation.
package access

import (
	"context"
	"errors"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/tenancy"

	"github.com/google/uuid"
)

type Service struct {
	Memberships *repository.Memberships
}

// RequireMembership returns the caller's membership in orgID together with a
// context scoped to that org. A missing membership is Forbidden, never
// NotFound, so callers cannot probe which orgs exist.
func (s *Service) RequireMembership(ctx context.Context, orgID, userID uuid.UUID) (context.Context, *domain.Membership, error) {
	return s.RequireRole(ctx, orgID, userID)
}

// RequireRole is RequireMembership plus a role-set check. With no roles
// given any member passes.
func (s *Service) RequireRole(ctx context.Context, orgID, userID uuid.UUID, roles ...domain.Role) (context.Context, *domain.Membership, error) {
	if orgID == uuid.Nil || userID == uuid.Nil {
		return ctx, nil, domain.Forbidden("Forbidden.")
	}
	m, err := s.Memberships.FindByKey(tenancy.WithOrg(ctx, orgID), orgID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ctx, nil, domain.Forbidden("Forbidden.")
		}
		return ctx, nil, err
	}
	if len(roles) > 0 && !domain.HasRole(m.Role, roles...) {
		return ctx, nil, domain.Forbidden("Forbidden.")
	}
	return tenancy.WithOrg(ctx, orgID), m, nil
}
