package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActivityEventCreated = "created"
	ActivityEventUpdated = "updated"

	SubjectTask = "task"
)

// Activity is an append-only audit record. It has no soft delete and no
// UpdatedAt: rows are never changed once written.
type Activity struct {
	ID          uint   `gorm:"primaryKey"`
	LogName     string `gorm:"not null"`
	Description string `gorm:"not null"`
	Event       string `gorm:"not null"`
	SubjectType string `gorm:"not null;index:idx_activity_subject"`
	SubjectID   uint   `gorm:"not null;index:idx_activity_subject"`
	CauserID    uint   `gorm:"not null;index"`
	ProjectID   uint   `gorm:"not null;index"`
	// Properties holds {"attributes": {...}, "old": {...}}
	Properties datatypes.JSON
	CreatedAt  time.Time `gorm:"index"`

	// Relationships
	Causer User `gorm:"foreignKey:CauserID"`
}
