package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority accepts a priority name in any case.
func ParsePriority(s string) (TaskPriority, bool) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Task is the primary tenant-owned resource.
type Task struct {
	ID           uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID        uuid.UUID    `gorm:"column:org_id;type:uuid;not null;index" json:"orgId"`
	Title        string       `gorm:"column:title;not null" json:"title"`
	Description  *string      `gorm:"column:description;type:text" json:"description"`
	Status       TaskStatus   `gorm:"column:status;type:varchar(16);not null;default:'TODO'" json:"status"`
	Priority     TaskPriority `gorm:"column:priority;type:varchar(16);not null;default:'MEDIUM'" json:"priority"`
	AssignedToID *uuid.UUID   `gorm:"column:assigned_to_id;type:uuid;index" json:"assignedToUserId"`
	DueDate      *time.Time   `gorm:"column:due_date" json:"dueDate"`
	CreatedByID  uuid.UUID    `gorm:"column:created_by_id;type:uuid;not null" json:"createdByUserId"`
	CreatedAt    time.Time    `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
