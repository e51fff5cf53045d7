package org

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/application/audit"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/tenancy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service encapsulates org-related operations.
type Service struct {
	DB     *gorm.DB
	Repos  *repository.Repositories
	Access *access.Service
	Audit  *audit.Service
	Now    func() time.Time
}

// Details is an organization as seen by one of its members.
type Details struct {
	Organization domain.Organization `json:"organization"`
	Role         domain.Role         `json:"role"`
	MemberCount  int64               `json:"memberCount"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NormalizeName trims name and checks its length (2..100 characters).
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return "", domain.Validation("Organization name must be between 2 and 100 characters.")
	}
	return name, nil
}

// CreateOrganization creates the org, the owner's ADMIN membership and the
// org.created audit entry in one transaction.
func (s *Service) CreateOrganization(ctx context.Context, name string, ownerID uuid.UUID) (*domain.Organization, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repos.Users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	var created *domain.Organization
	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		now := s.now()
		o := &domain.Organization{Name: name, CreatedByID: ownerID, CreatedAt: now}
		if err := s.Repos.Orgs.Create(ctx, o); err != nil {
			return err
		}
		ctx = tenancy.WithOrg(ctx, o.ID)
		if err := s.Repos.Memberships.Create(ctx, &domain.Membership{
			OrgID:     o.ID,
			UserID:    ownerID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if _, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      o.ID,
			ActorID:    &ownerID,
			Action:     domain.ActionOrgCreated,
			EntityType: domain.EntityOrganization,
			EntityID:   o.ID.String(),
			Metadata:   map[string]interface{}{"name": name},
		}); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListForUser returns the orgs userID belongs to, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	orgs, err := s.Repos.Orgs.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	return orgs, nil
}

// Get returns the org with the caller's role. Any member may read it.
func (s *Service) Get(ctx context.Context, orgID, actorID uuid.UUID) (*Details, error) {
	ctx, m, err := s.Access.RequireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	o, err := s.Repos.Orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	n, err := s.Repos.Memberships.Count(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return &Details{Organization: *o, Role: m.Role, MemberCount: n}, nil
}
