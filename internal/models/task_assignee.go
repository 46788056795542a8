package models

import "time"

// TaskAssignee links a task to one of the users working on it.
type TaskAssignee struct {
	TaskID    string    `gorm:"primaryKey;type:varchar(36)" json:"task_id"`
	UserID    uint64    `gorm:"primaryKey;index:idx_task_assignees_user_id" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (TaskAssignee) TableName() string {
	return "task_assignees"
}
