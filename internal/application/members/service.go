// Package members manages an organization's roster and roles.
package members

import (
	"context"
	"errors"
	"time"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/application/audit"
	policies "taskdesk-backend/internal/application/policies/members"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/infrastructure/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB     *gorm.DB
	Repos  *repository.Repositories
	Access *access.Service
	Audit  *audit.Service
}

// Member is one roster row.
type Member struct {
	UserID   uuid.UUID   `json:"userId"`
	Email    string      `json:"email"`
	Name     *string     `json:"name"`
	Role     domain.Role `json:"role"`
	JoinedAt time.Time   `json:"joinedAt"`
}

// ListMembers returns the org's roster. ADMIN and MANAGER only.
func (s *Service) ListMembers(ctx context.Context, orgID, actorID uuid.UUID) ([]Member, error) {
	ctx, _, err := s.Access.RequireRole(ctx, orgID, actorID, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return nil, err
	}
	ms, err := s.Repos.Memberships.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		row := Member{UserID: m.UserID, Role: m.Role, JoinedAt: m.CreatedAt}
		if m.User != nil {
			row.Email = m.User.Email
			row.Name = m.User.Name
		}
		out = append(out, row)
	}
	return out, nil
}

// ChangeRole sets targetUserID's role in orgID. ADMIN only. The audit entry
// carries the role before and after the change.
func (s *Service) ChangeRole(ctx context.Context, orgID, actorID, targetUserID uuid.UUID, newRole domain.Role) (*domain.Membership, error) {
	ctx, _, err := s.Access.RequireRole(ctx, orgID, actorID, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	newRole, _ = domain.ParseRole(string(newRole))

	var updated *domain.Membership
	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		target, err := s.Repos.Memberships.FindByKey(ctx, orgID, targetUserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Member not found.")
			}
			return err
		}
		if err := policies.ValidateRoleChange(ctx, s.Repos.Memberships, target, newRole); err != nil {
			return err
		}
		prior := target.Role
		if err := s.Repos.Memberships.Update(ctx, orgID, targetUserID, map[string]interface{}{"role": newRole}); err != nil {
			return err
		}
		target.Role = newRole
		if _, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionMemberRoleUpdated,
			EntityType: domain.EntityMembership,
			EntityID:   target.ID.String(),
			Metadata: map[string]interface{}{
				"memberUserId": targetUserID,
				"priorRole":    prior,
				"newRole":      newRole,
			},
		}); err != nil {
			return err
		}
		updated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
