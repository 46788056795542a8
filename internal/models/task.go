package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// IsValid reports whether p is one of the known priorities.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	ColumnID    string                      `gorm:"type:varchar(255);not null;index:idx_tasks_column_position,priority:1" json:"column_id"`
	Position    int                         `gorm:"not null;default:0;index:idx_tasks_column_position,priority:2" json:"position"`
	DueDate     *time.Time                  `gorm:"index:idx_tasks_due_date" json:"due"`
	Tags        datatypes.JSONSlice[string] `gorm:"not null" json:"tags"`
	Priority    TaskPriority                `gorm:"type:varchar(10);not null;default:'Low'" json:"priority"`
	CreatedAt   time.Time                   `gorm:"index:idx_tasks_created_at" json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`

	// Relations
	Assignees []TaskAssignee `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"assignees,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Tags == nil {
		t.Tags = datatypes.JSONSlice[string]{}
	}
	if t.Priority == "" {
		t.Priority = PriorityLow
	}
	return nil
}
