package models

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	gorm.Model

	ProjectID    uint         `gorm:"not null;index"`
	Title        string       `gorm:"size:255;not null"`
	Description  string
	DueDate      *time.Time   `gorm:"index"`
	Status       TaskStatus   `gorm:"not null;index"`
	Priority     TaskPriority `gorm:"not null;index"`
	AssignedToID *uint        `gorm:"index"`

	// Relationships
	Project      Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AssignedUser *User     `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Comments     []Comment `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// IsAssignedTo reports whether the task is assigned to userID.
func (t Task) IsAssignedTo(userID uint) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
