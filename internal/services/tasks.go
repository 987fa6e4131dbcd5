package services

import (
	"context"
	"strings"
	"time"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/audit"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/notify"
	"github.com/berai-dev/berai/internal/policy"
	"github.com/berai-dev/berai/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateTaskInput struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	DueDate      string `json:"due_date"`
	AssignedToID *uint  `json:"assigned_to_id"`
	Priority     int    `json:"priority" validate:"required"`
}

var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDueDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}

// normalize checks every field and returns the parsed values. All field
// problems are reported together.
func (in *CreateTaskInput) normalize() (models.TaskPriority, *time.Time, error) {
	in.Title = strings.TrimSpace(in.Title)

	fields := map[string]string{}
	if err := mergeFields(fields, validation.Struct(in)); err != nil {
		return 0, nil, err
	}

	var priority models.TaskPriority
	if _, ok := fields["priority"]; !ok {
		p, err := models.ParseTaskPriority(in.Priority)
		if err != nil {
			fields["priority"] = "The selected priority is invalid."
		}
		priority = p
	}

	due, ok := parseDueDate(in.DueDate)
	if !ok {
		fields["due_date"] = "The due date field must be a valid date."
	}

	if len(fields) > 0 {
		return 0, nil, &apperr.ValidationError{Fields: fields}
	}
	return priority, due, nil
}

// TaskService runs the task workflow: creation, status and priority changes
// and deletion.
type TaskService struct {
	*core
}

// CreateTask adds a task to projectID. The task always starts in TODO. When
// an assignee is set the notifier is called once after commit.
func (s *TaskService) CreateTask(ctx context.Context, actorID, projectID uint, in CreateTaskInput) (*models.Task, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("task-create", err)
	}

	if err := s.authorize(actorID, policy.ActionCreateTask, policy.ForProject(project)); err != nil {
		return nil, err
	}

	priority, due, err := in.normalize()
	if err != nil {
		return nil, err
	}

	if in.AssignedToID != nil && !project.HasMember(*in.AssignedToID) {
		return nil, apperr.NewValidation("assigned_to_id", "The selected assigned to id is invalid.")
	}

	task := models.Task{
		ProjectID:    project.ID,
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      due,
		Status:       models.StatusTodo,
		Priority:     priority,
		AssignedToID: in.AssignedToID,
	}

	var activity *models.Activity
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		var err error
		activity, err = s.audit.Write(tx, audit.ForTaskCreate(task, actorID))
		return err
	})
	if err != nil {
		return nil, s.fail("task-create", err)
	}

	if err := s.db.WithContext(ctx).Preload("Project").Preload("AssignedUser").First(&task, task.ID).Error; err != nil {
		return nil, s.fail("task-create", err)
	}

	s.publish(ctx, activity)

	if a, ok := notify.NewAssignment(task, s.appURL); ok {
		if err := s.notifier.TaskAssigned(ctx, a); err != nil {
			logging.Logger.Errorf("Event ID: TASK_NOTIFY_FAILED, Description: Failed to notify user %d about task %d: %v", a.AssigneeID, task.ID, err)
		}
	}

	return &task, nil
}

// UpdateStatus moves a task to status. Any status is reachable from any
// other; an unchanged value writes no activity.
func (s *TaskService) UpdateStatus(ctx context.Context, actorID, taskID uint, raw int) (*models.Task, error) {
	status, err := models.ParseTaskStatus(raw)
	if err != nil {
		return nil, apperr.NewValidation("status", "The selected status is invalid.")
	}

	return s.update(ctx, "task-status-update", actorID, taskID, func(t *models.Task) (string, any) {
		t.Status = status
		return "status", status
	})
}

// UpdatePriority sets the priority of a task.
func (s *TaskService) UpdatePriority(ctx context.Context, actorID, taskID uint, raw int) (*models.Task, error) {
	priority, err := models.ParseTaskPriority(raw)
	if err != nil {
		return nil, apperr.NewValidation("priority", "The selected priority is invalid.")
	}

	return s.update(ctx, "task-priority-update", actorID, taskID, func(t *models.Task) (string, any) {
		t.Priority = priority
		return "priority", priority
	})
}

// update applies set to the task and records the change. set returns the
// column it changed and the new value.
func (s *TaskService) update(ctx context.Context, op string, actorID, taskID uint, set func(*models.Task) (string, any)) (*models.Task, error) {
	task, err := s.loadTask(ctx, s.db, taskID)
	if err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.authorize(actorID, policy.ActionUpdateTask, policy.ForTask(task)); err != nil {
		return nil, err
	}

	var activity *models.Activity
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Diff against the committed row so a concurrent identical change
		// is recorded once.
		var before models.Task
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&before, task.ID).Error; err != nil {
			return err
		}

		after := before
		column, value := set(&after)

		if err := tx.Model(&models.Task{}).Where("id = ?", task.ID).Update(column, value).Error; err != nil {
			return err
		}

		var err error
		activity, err = s.audit.Write(tx, audit.ForTaskUpdate(before, after, actorID))
		if err != nil {
			return err
		}

		task.Status = after.Status
		task.Priority = after.Priority
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publish(ctx, activity)

	return task, nil
}

// DeleteTask removes a task and its comments. Only the project owner may
// delete tasks.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID uint) (*models.Task, error) {
	task, err := s.loadTask(ctx, s.db, taskID)
	if err != nil {
		return nil, s.fail("task-delete", err)
	}

	if err := s.authorize(actorID, policy.ActionDeleteTask, policy.ForTask(task)); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Task{}, task.ID).Error
	})
	if err != nil {
		return nil, s.fail("task-delete", err)
	}

	return task, nil
}
