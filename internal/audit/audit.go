// Package audit records task changes as Activity rows. Only status and
// priority are logged, and only when their values change.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/berai-dev/berai/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const LogName = "default"

// Entry is an activity that has not been written yet.
type Entry struct {
	Event      string
	SubjectID  uint
	CauserID   uint
	ProjectID  uint
	Attributes map[string]int
	Old        map[string]int
}

// Empty reports whether the entry carries no logged attribute.
func (e Entry) Empty() bool {
	return len(e.Attributes) == 0
}

func (e Entry) Description() string {
	return fmt.Sprintf("has %s a task", e.Event)
}

// ForTaskCreate describes the creation of task by actorID.
func ForTaskCreate(task models.Task, actorID uint) Entry {
	return Entry{
		Event:     models.ActivityEventCreated,
		SubjectID: task.ID,
		CauserID:  actorID,
		ProjectID: task.ProjectID,
		Attributes: map[string]int{
			"status":   int(task.Status),
			"priority": int(task.Priority),
		},
	}
}

// ForTaskUpdate describes the logged fields that differ between before and
// after. The result is Empty when nothing logged changed.
func ForTaskUpdate(before, after models.Task, actorID uint) Entry {
	e := Entry{
		Event:      models.ActivityEventUpdated,
		SubjectID:  after.ID,
		CauserID:   actorID,
		ProjectID:  after.ProjectID,
		Attributes: map[string]int{},
		Old:        map[string]int{},
	}

	if before.Status != after.Status {
		e.Attributes["status"] = int(after.Status)
		e.Old["status"] = int(before.Status)
	}
	if before.Priority != after.Priority {
		e.Attributes["priority"] = int(after.Priority)
		e.Old["priority"] = int(before.Priority)
	}

	return e
}

type properties struct {
	Attributes map[string]int `json:"attributes"`
	Old        map[string]int `json:"old,omitempty"`
}

// Activity converts the entry into its stored form.
func (e Entry) Activity() (models.Activity, error) {
	raw, err := json.Marshal(properties{Attributes: e.Attributes, Old: e.Old})
	if err != nil {
		return models.Activity{}, err
	}

	return models.Activity{
		LogName:     LogName,
		Description: e.Description(),
		Event:       e.Event,
		SubjectType: models.SubjectTask,
		SubjectID:   e.SubjectID,
		CauserID:    e.CauserID,
		ProjectID:   e.ProjectID,
		Properties:  datatypes.JSON(raw),
	}, nil
}

// Writer persists entries inside the caller's transaction.
type Writer interface {
	Write(tx *gorm.DB, e Entry) (*models.Activity, error)
}

// GormWriter stores entries in the activities table.
type GormWriter struct{}

// Write stores e and returns the row, or nil when e is empty.
func (GormWriter) Write(tx *gorm.DB, e Entry) (*models.Activity, error) {
	if e.Empty() {
		return nil, nil
	}

	activity, err := e.Activity()
	if err != nil {
		return nil, fmt.Errorf("encode activity properties: %w", err)
	}

	if err := tx.Create(&activity).Error; err != nil {
		return nil, err
	}

	return &activity, nil
}

// Sink receives a copy of every committed activity.
type Sink interface {
	Publish(ctx context.Context, activity models.Activity) error
}

// NopSink discards activities.
type NopSink struct{}

func (NopSink) Publish(context.Context, models.Activity) error {
	return nil
}
