// Package invitations implements the invitation lifecycle: create, accept,
// revoke, list and a public token preview.
//
// Only the sha256 of a token is stored. The raw token is returned once from
// Create and is never recoverable afterwards.
package invitations

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskdesk-backend/internal/application/access"
	"taskdesk-backend/internal/application/audit"
	"taskdesk-backend/internal/application/emails"
	policies "taskdesk-backend/internal/application/policies/invitations"
	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/database"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/tenancy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const DefaultExpiryDays = 7

// Roles allowed to create, list and revoke invitations.
var manageRoles = []domain.Role{domain.RoleAdmin, domain.RoleManager}

type Service struct {
	DB     *gorm.DB
	Repos  *repository.Repositories
	Access *access.Service
	Audit  *audit.Service
	Mail   emails.Sender // nil disables invitation emails
	// BaseURL is the frontend origin invite links point at.
	BaseURL     string
	DefaultDays int
	Now         func() time.Time
}

// CreateInput is the invitation payload. A nil Email makes an open
// invitation usable by anyone holding the token.
type CreateInput struct {
	Email         *string     `json:"email"`
	Role          domain.Role `json:"role"`
	ExpiresInDays *int        `json:"expiresInDays"`
}

// Created carries the raw token. It is never returned again.
type Created struct {
	Invitation *domain.Invitation `json:"invitation"`
	Token      string             `json:"token"`
	Link       string             `json:"inviteUrl,omitempty"`
}

// View is an invitation with its derived status.
type View struct {
	domain.Invitation
	Status domain.InvitationStatus `json:"status"`
}

// Preview is what a token holder may see before accepting.
type Preview struct {
	OrgID     uuid.UUID   `json:"orgId"`
	OrgName   string      `json:"orgName"`
	Email     *string     `json:"email"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) link(token string) string {
	if s.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.BaseURL, "/") + "/invite/" + token
}

// Create issues an invitation to orgID. ADMIN and MANAGER only; only an
// ADMIN may invite another ADMIN.
func (s *Service) Create(ctx context.Context, orgID, actorID uuid.UUID, in CreateInput) (*Created, error) {
	ctx, actor, err := s.Access.RequireRole(ctx, orgID, actorID, manageRoles...)
	if err != nil {
		return nil, err
	}
	inviter, err := s.Repos.Users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	email := ""
	if in.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	days := s.DefaultDays
	if days <= 0 {
		days = DefaultExpiryDays
	}
	if in.ExpiresInDays != nil {
		days = *in.ExpiresInDays
	}
	role, _ := domain.ParseRole(string(in.Role))
	now := s.now()
	if err := policies.ValidateInviteCreation(ctx, s.Repos, policies.InviteCreation{
		OrgID:      orgID,
		ActorRole:  actor.Role,
		ActorEmail: inviter.Email,
		Email:      email,
		Role:       role,
		ExpiryDays: days,
		Now:        now,
	}); err != nil {
		return nil, err
	}

	token, hash, err := NewToken()
	if err != nil {
		return nil, err
	}
	inv := &domain.Invitation{
		OrgID:       orgID,
		Role:        role,
		TokenHash:   hash,
		InvitedByID: actorID,
		ExpiresAt:   now.Add(time.Duration(days) * 24 * time.Hour),
		CreatedAt:   now,
	}
	if email != "" {
		inv.Email = &email
	}

	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		if err := s.Repos.Invitations.Create(ctx, inv); err != nil {
			return err
		}
		_, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionInviteCreated,
			EntityType: domain.EntityInvitation,
			EntityID:   inv.ID.String(),
			Metadata:   map[string]interface{}{"email": inv.Email, "role": role},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	created := &Created{Invitation: inv, Token: token, Link: s.link(token)}
	if email != "" && s.Mail != nil && created.Link != "" {
		s.deliver(ctx, inv, inviter, created.Link)
	}
	return created, nil
}

// deliver sends the invitation email. Delivery problems never fail the
// invitation; the caller still holds the link.
func (s *Service) deliver(ctx context.Context, inv *domain.Invitation, inviter *domain.User, link string) {
	o, err := s.Repos.Orgs.FindByID(ctx, inv.OrgID)
	if err != nil {
		log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("invitation email skipped")
		return
	}
	from := inviter.Email
	if inviter.Name != nil {
		from = *inviter.Name
	}
	err = s.Mail.SendInvite(ctx, emails.Invite{
		To:        *inv.Email,
		OrgName:   o.Name,
		Role:      string(inv.Role),
		Link:      link,
		InvitedBy: from,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("invitation email failed")
	}
}

// Accept redeems token for userID in one transaction. When the user is
// already a member the existing membership is returned unchanged and the
// invitation is still consumed.
func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID) (*domain.Membership, error) {
	var result *domain.Membership
	err := database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		inv, err := s.Repos.Invitations.FindByTokenHash(ctx, HashToken(token))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Invitation not found.")
			}
			return err
		}
		now := s.now()
		if err := policies.ValidateInviteState(inv, now); err != nil {
			return err
		}
		ctx = tenancy.WithOrg(ctx, inv.OrgID)

		u, err := s.Repos.Users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("User not found.")
			}
			return err
		}
		if err := policies.ValidateInviteRecipient(inv, u.Email); err != nil {
			return err
		}

		m, err := s.Repos.Memberships.FindByKey(ctx, inv.OrgID, userID)
		existed := err == nil
		switch {
		case existed:
		case errors.Is(err, domain.ErrNotFound):
			m = &domain.Membership{OrgID: inv.OrgID, UserID: userID, Role: inv.Role, CreatedAt: now}
			if err := s.Repos.Memberships.Create(ctx, m); err != nil {
				return err
			}
		default:
			return err
		}

		ok, err := s.Repos.Invitations.ResolvePending(ctx, inv.OrgID, inv.ID, map[string]interface{}{"accepted_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("Invitation is no longer valid.")
		}

		meta := map[string]interface{}{"role": inv.Role}
		if existed {
			meta["alreadyMember"] = true
		}
		if _, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      inv.OrgID,
			ActorID:    &userID,
			Action:     domain.ActionInviteAccepted,
			EntityType: domain.EntityInvitation,
			EntityID:   inv.ID.String(),
			Metadata:   meta,
		}); err != nil {
			return err
		}
		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke cancels a pending invitation of orgID, expired or not.
func (s *Service) Revoke(ctx context.Context, orgID, actorID, invitationID uuid.UUID) (*domain.Invitation, error) {
	ctx, _, err := s.Access.RequireRole(ctx, orgID, actorID, manageRoles...)
	if err != nil {
		return nil, err
	}
	var revoked *domain.Invitation
	err = database.RunInTx(ctx, s.DB, func(ctx context.Context) error {
		inv, err := s.Repos.Invitations.FindByID(ctx, orgID, invitationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound("Invitation not found.")
			}
			return err
		}
		now := s.now()
		ok, err := s.Repos.Invitations.ResolvePending(ctx, orgID, inv.ID, map[string]interface{}{"revoked_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("Invitation is no longer valid.")
		}
		inv.RevokedAt = &now
		if _, err := s.Audit.Record(ctx, audit.Entry{
			OrgID:      orgID,
			ActorID:    &actorID,
			Action:     domain.ActionInviteRevoked,
			EntityType: domain.EntityInvitation,
			EntityID:   inv.ID.String(),
			Metadata:   map[string]interface{}{"email": inv.Email, "role": inv.Role},
		}); err != nil {
			return err
		}
		revoked = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

// List returns all invitations of orgID, newest first, terminal ones included.
func (s *Service) List(ctx context.Context, orgID, actorID uuid.UUID) ([]View, error) {
	ctx, _, err := s.Access.RequireRole(ctx, orgID, actorID, manageRoles...)
	if err != nil {
		return nil, err
	}
	invs, err := s.Repos.Invitations.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]View, 0, len(invs))
	for i := range invs {
		views = append(views, View{Invitation: invs[i], Status: invs[i].StatusAt(now)})
	}
	return views, nil
}

// Check previews a token without consuming it. Only pending, unexpired
// invitations resolve; everything else reads as not found.
func (s *Service) Check(ctx context.Context, token string) (*Preview, error) {
	inv, err := s.Repos.Invitations.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Invitation not found.")
		}
		return nil, err
	}
	if inv.StatusAt(s.now()) != domain.InvitationPending {
		return nil, domain.NotFound("Invitation not found.")
	}
	o, err := s.Repos.Orgs.FindByID(ctx, inv.OrgID)
	if err != nil {
		return nil, err
	}
	return &Preview{
		OrgID:     o.ID,
		OrgName:   o.Name,
		Email:     inv.Email,
		Role:      inv.Role,
		ExpiresAt: inv.ExpiresAt,
	}, nil
}
