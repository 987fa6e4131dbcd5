package models

import "time"

// Notification is an in-app inbox entry. It is stored by the Cassandra inbox
// rather than the relational store, so it carries no gorm metadata.
type Notification struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	TaskID    uint      `json:"task_id"`
	ProjectID uint      `json:"project_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
