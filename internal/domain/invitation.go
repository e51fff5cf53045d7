package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationStatus is derived from the stored markers and the clock.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRevoked  InvitationStatus = "REVOKED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

// Invitation lets a principal join an organization with a role.
// Only the sha256 of the bearer token is stored. At most one of
// RevokedAt and AcceptedAt is ever set, and either one is terminal.
type Invitation struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID       uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index" json:"orgId"`
	Email       *string    `gorm:"column:email" json:"email"`
	Role        Role       `gorm:"column:role;type:varchar(16);not null" json:"role"`
	TokenHash   string     `gorm:"column:token_hash;not null;uniqueIndex" json:"-"`
	InvitedByID uuid.UUID  `gorm:"column:invited_by_id;type:uuid;not null" json:"invitedById"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null" json:"expiresAt"`
	RevokedAt   *time.Time `gorm:"column:revoked_at" json:"revokedAt"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at" json:"acceptedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the invitation was already accepted or revoked.
func (i *Invitation) Terminal() bool {
	return i.RevokedAt != nil || i.AcceptedAt != nil
}

// StatusAt derives the lifecycle state at now.
func (i *Invitation) StatusAt(now time.Time) InvitationStatus {
	switch {
	case i.AcceptedAt != nil:
		return InvitationAccepted
	case i.RevokedAt != nil:
		return InvitationRevoked
	case i.ExpiresAt.Before(now):
		return InvitationExpired
	default:
		return InvitationPending
	}
}
