// Package notify delivers the "task assigned" notification over the
// configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
)

// Assignment is everything a channel needs to tell a user about a new task.
type Assignment struct {
	TaskID        uint
	TaskTitle     string
	Priority      string
	DueDate       *time.Time
	ProjectID     uint
	ProjectName   string
	AssigneeID    uint
	AssigneeName  string
	AssigneeEmail string
	ProjectURL    string
}

// NewAssignment builds the notification for task. Project and AssignedUser
// must be loaded; ok is false when the task has no assignee.
func NewAssignment(task models.Task, appURL string) (Assignment, bool) {
	if task.AssignedUser == nil {
		return Assignment{}, false
	}

	return Assignment{
		TaskID:        task.ID,
		TaskTitle:     task.Title,
		Priority:      task.Priority.Label(),
		DueDate:       task.DueDate,
		ProjectID:     task.ProjectID,
		ProjectName:   task.Project.Name,
		AssigneeID:    task.AssignedUser.ID,
		AssigneeName:  task.AssignedUser.Name,
		AssigneeEmail: task.AssignedUser.Email,
		ProjectURL:    fmt.Sprintf("%s/projects/%d", strings.TrimRight(appURL, "/"), task.ProjectID),
	}, true
}

// DueDateLabel formats the due date, or "N/A" when there is none.
func (a Assignment) DueDateLabel() string {
	if a.DueDate == nil {
		return "N/A"
	}
	return a.DueDate.Format("2006-01-02")
}

// Message is the one-line summary used by plain-text channels.
func (a Assignment) Message() string {
	return fmt.Sprintf("A new task has been assigned to you in the project %q: %s (due %s)", a.ProjectName, a.TaskTitle, a.DueDateLabel())
}

type Notifier interface {
	TaskAssigned(ctx context.Context, a Assignment) error
}

// LogNotifier writes the notification to the log.
type LogNotifier struct{}

func (LogNotifier) TaskAssigned(_ context.Context, a Assignment) error {
	logging.Logger.Infof("Event ID: TASK_ASSIGNED, Description: Task %d assigned to user %d (%s): %s", a.TaskID, a.AssigneeID, a.AssigneeEmail, a.Message())
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) TaskAssigned(ctx context.Context, a Assignment) error {
	var errs []error
	for _, n := range m {
		if err := n.TaskAssigned(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, a Assignment) error

func (f NotifierFunc) TaskAssigned(ctx context.Context, a Assignment) error {
	return f(ctx, a)
}
