package policies

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskdesk-backend/internal/domain"
	"taskdesk-backend/internal/infrastructure/repository"
	"taskdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

const (
	MinExpiryDays = 1
	MaxExpiryDays = 30
)

// InviteCreation is what ValidateInviteCreation checks.
type InviteCreation struct {
	OrgID      uuid.UUID
	ActorRole  domain.Role
	ActorEmail string
	Email      string // normalized, empty for open invitations
	Role       domain.Role
	ExpiryDays int
	Now        time.Time
}

// ValidateInviteCreation enforces who may grant which role and rejects
// invitations that could never be usefully accepted. ctx must be scoped to
// OrgID.
func ValidateInviteCreation(ctx context.Context, repos *repository.Repositories, in InviteCreation) error {
	if !in.Role.Valid() {
		return domain.Validation("Role must be one of ADMIN, MANAGER, MEMBER.")
	}
	if in.Role == domain.RoleAdmin && in.ActorRole != domain.RoleAdmin {
		return domain.Forbidden("Only admins can invite admins.")
	}
	if in.ExpiryDays < MinExpiryDays || in.ExpiryDays > MaxExpiryDays {
		return domain.Validation("Invitation expiry must be between 1 and 30 days.")
	}
	if in.Email == "" {
		return nil
	}
	if !validation.IsValidEmail(in.Email) {
		return domain.Validation("Invalid email format.")
	}
	if in.Email == strings.ToLower(in.ActorEmail) {
		return domain.Validation("You cannot invite yourself.")
	}

	u, err := repos.Users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if _, err := repos.Memberships.FindByKey(ctx, in.OrgID, u.ID); err == nil {
			return domain.Conflict("User already belongs to this organization.")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if _, err := repos.Invitations.FindPendingForEmail(ctx, in.OrgID, in.Email, in.Now); err == nil {
		return domain.Conflict("A pending invitation already exists for this email.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// ValidateInviteState rejects invitations that can no longer be accepted.
func ValidateInviteState(inv *domain.Invitation, now time.Time) error {
	if inv.Terminal() {
		return domain.Conflict("Invitation is no longer valid.")
	}
	if inv.ExpiresAt.Before(now) {
		return domain.Conflict("Invitation has expired.")
	}
	return nil
}

// ValidateInviteRecipient checks a targeted invitation against the
// accepting user's email, ignoring case.
func ValidateInviteRecipient(inv *domain.Invitation, userEmail string) error {
	if inv.Email != nil && !strings.EqualFold(*inv.Email, userEmail) {
		return domain.Forbidden("Invitation email does not match.")
	}
	return nil
}
