package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionOrgCreated        = "org.created"
	ActionInviteCreated     = "org.invite.created"
	ActionInviteAccepted    = "org.invite.accepted"
	ActionInviteRevoked     = "org.invite.revoked"
	ActionMemberRoleUpdated = "org.member.role_updated"
	ActionTaskCreated       = "task.created"
	ActionTaskUpdated       = "task.updated"
	ActionTaskStatusChanged = "task.status.changed"
	ActionTaskDeleted       = "task.deleted"
)

// Entity types referenced by audit entries.
const (
	EntityOrganization = "Organization"
	EntityInvitation   = "Invitation"
	EntityMembership   = "Membership"
	EntityTask         = "Task"
)

// AuditLog is an immutable record of one state-changing action.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID      uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index" json:"orgId"`
	ActorID    *uuid.UUID     `gorm:"column:actor_user_id;type:uuid" json:"actorUserId"`
	Action     string         `gorm:"column:action;not null;index" json:"action"`
	EntityType *string        `gorm:"column:entity_type" json:"entityType"`
	EntityID   *string        `gorm:"column:entity_id;index" json:"entityId"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	IP         *string        `gorm:"column:ip" json:"ip"`
	UserAgent  *string        `gorm:"column:user_agent" json:"userAgent"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
