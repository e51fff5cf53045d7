package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership binds a user to an organization with a role. Unique per (user, org).
type Membership struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_membership_user_org" json:"userId"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;uniqueIndex:idx_membership_user_org;index" json:"orgId"`
	Role      Role      `gorm:"column:role;type:varchar(16);not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Membership) TableName() string {
	return "memberships"
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
