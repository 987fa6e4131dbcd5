package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/notify"
	"github.com/berai-dev/berai/internal/policy"
	"github.com/berai-dev/berai/internal/testutil"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	carol := f.user(t, "Carol", "carol@example.com")
	project := f.project(t, alice, "Roadmap", bob)

	t.Run("Given an assignee, When creating, Then the task starts in TODO and the assignee is notified once", func(t *testing.T) {
		task, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{
			Title:        "Plan Q3",
			DueDate:      "2026-06-01",
			AssignedToID: testutil.UintPtr(bob.ID),
			Priority:     int(models.PriorityHigh),
		})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}

		if task.Status != models.StatusTodo {
			t.Errorf("Status = %v, want TODO", task.Status)
		}
		if task.Priority != models.PriorityHigh {
			t.Errorf("Priority = %v, want High", task.Priority)
		}
		if task.AssignedUser == nil || task.AssignedUser.ID != bob.ID || task.Project.ID != project.ID {
			t.Errorf("relations not loaded: %+v", task)
		}
		if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2026-06-01" {
			t.Errorf("DueDate = %v", task.DueDate)
		}

		calls := f.notifier.Calls()
		if len(calls) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(calls))
		}
		if calls[0].AssigneeID != bob.ID || calls[0].ProjectName != "Roadmap" || calls[0].TaskID != task.ID {
			t.Errorf("unexpected notification: %+v", calls[0])
		}

		if n := f.count(t, &models.Activity{}, "subject_id = ? AND event = ?", task.ID, models.ActivityEventCreated); n != 1 {
			t.Errorf("expected 1 created activity, got %d", n)
		}
		if len(f.sink.published) == 0 {
			t.Error("expected the created activity to be mirrored")
		}
	})

	t.Run("Given no assignee, When creating, Then nobody is notified", func(t *testing.T) {
		before := len(f.notifier.Calls())

		if _, err := f.svc.Tasks.CreateTask(f.ctx, bob.ID, project.ID, CreateTaskInput{Title: "Loose end", Priority: 1}); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}

		if len(f.notifier.Calls()) != before {
			t.Fatal("expected no notification")
		}
	})

	t.Run("Given an out-of-range priority, When creating, Then it is rejected and nothing is stored", func(t *testing.T) {
		before := f.count(t, &models.Task{}, "")

		_, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{Title: "Bad", Priority: 9})
		assertValidation(t, err, "priority")

		if f.count(t, &models.Task{}, "") != before {
			t.Fatal("expected no task to be stored")
		}
	})

	t.Run("Given a non-member with an invalid body, When creating, Then it is forbidden without field detail", func(t *testing.T) {
		_, err := f.svc.Tasks.CreateTask(f.ctx, carol.ID, project.ID, CreateTaskInput{Title: "  ", Priority: 9})
		assertForbidden(t, err)
	})

	t.Run("Given missing fields, When creating, Then every field is reported", func(t *testing.T) {
		_, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{Title: "   ", DueDate: "soon"})
		assertValidation(t, err, "title")
		assertValidation(t, err, "priority")
		assertValidation(t, err, "due_date")
	})

	t.Run("Given a non-member assignee, When creating, Then nothing is stored", func(t *testing.T) {
		before := f.count(t, &models.Task{}, "")

		_, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{
			Title:        "Outsourced",
			AssignedToID: testutil.UintPtr(carol.ID),
			Priority:     2,
		})
		assertValidation(t, err, "assigned_to_id")

		if f.count(t, &models.Task{}, "") != before {
			t.Fatal("expected no task to be stored")
		}
	})

	t.Run("Given a non-member actor, When creating, Then it is forbidden", func(t *testing.T) {
		_, err := f.svc.Tasks.CreateTask(f.ctx, carol.ID, project.ID, CreateTaskInput{Title: "Sneaky", Priority: 1})
		assertForbidden(t, err)
	})

	t.Run("Given an unknown project, When creating, Then it is not found", func(t *testing.T) {
		_, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, 9999, CreateTaskInput{Title: "Nowhere", Priority: 1})
		assertNotFound(t, err)
	})
}

func TestCreateTaskNotifierFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, alice, "Roadmap", bob)

	f.notifier.TaskAssignedFunc = func(context.Context, notify.Assignment) error {
		return errors.New("smtp down")
	}

	task, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{
		Title:        "Still here",
		AssignedToID: testutil.UintPtr(bob.ID),
		Priority:     1,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if n := f.count(t, &models.Task{}, "id = ?", task.ID); n != 1 {
		t.Fatalf("expected the task to survive a notifier failure, got %d rows", n)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	carol := f.user(t, "Carol", "carol@example.com")
	project := f.project(t, alice, "Roadmap", bob, carol)
	task := testutil.CreateTask(t, f.db, &models.Task{ProjectID: project.ID, Title: "Ship", AssignedToID: testutil.UintPtr(bob.ID)})

	updated := func() int64 {
		return f.count(t, &models.Activity{}, "subject_id = ? AND event = ?", task.ID, models.ActivityEventUpdated)
	}

	tests := []struct {
		name        string
		actor       uint
		status      int
		wantErr     func(*testing.T, error)
		wantStatus  models.TaskStatus
		wantUpdates int64
	}{
		{
			name:        "Given the same status, When updating, Then no activity is written",
			actor:       alice.ID,
			status:      int(models.StatusTodo),
			wantStatus:  models.StatusTodo,
			wantUpdates: 0,
		},
		{
			name:        "Given the assignee, When moving to IN_PROGRESS, Then one activity is written",
			actor:       bob.ID,
			status:      int(models.StatusInProgress),
			wantStatus:  models.StatusInProgress,
			wantUpdates: 1,
		},
		{
			name:        "Given the owner, When completing, Then a second activity is written",
			actor:       alice.ID,
			status:      int(models.StatusCompleted),
			wantStatus:  models.StatusCompleted,
			wantUpdates: 2,
		},
		{
			name:        "Given a completed task, When reopening, Then it returns to TODO",
			actor:       bob.ID,
			status:      int(models.StatusTodo),
			wantStatus:  models.StatusTodo,
			wantUpdates: 3,
		},
		{
			name:        "Given an out-of-range status, When updating, Then it is rejected",
			actor:       alice.ID,
			status:      4,
			wantErr:     func(t *testing.T, err error) { assertValidation(t, err, "status") },
			wantStatus:  models.StatusTodo,
			wantUpdates: 3,
		},
		{
			name:        "Given a member who is not the assignee, When updating, Then it is forbidden",
			actor:       carol.ID,
			status:      int(models.StatusCompleted),
			wantErr:     assertForbidden,
			wantStatus:  models.StatusTodo,
			wantUpdates: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Tasks.UpdateStatus(f.ctx, tt.actor, task.ID, tt.status)
			if tt.wantErr != nil {
				tt.wantErr(t, err)
			} else if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}

			var stored models.Task
			if err := f.db.First(&stored, task.ID).Error; err != nil {
				t.Fatalf("reload: %v", err)
			}
			if stored.Status != tt.wantStatus {
				t.Errorf("stored status = %v, want %v", stored.Status, tt.wantStatus)
			}
			if got := updated(); got != tt.wantUpdates {
				t.Errorf("updated activities = %d, want %d", got, tt.wantUpdates)
			}
		})
	}
}

func TestUpdatePriority(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	project := f.project(t, alice, "Roadmap")
	task := testutil.CreateTask(t, f.db, &models.Task{ProjectID: project.ID, Title: "Ship", Priority: models.PriorityLow})

	t.Run("Given a new priority, When updating, Then the activity records old and new values", func(t *testing.T) {
		got, err := f.svc.Tasks.UpdatePriority(f.ctx, alice.ID, task.ID, int(models.PriorityUrgent))
		if err != nil {
			t.Fatalf("UpdatePriority: %v", err)
		}
		if got.Priority != models.PriorityUrgent {
			t.Errorf("Priority = %v", got.Priority)
		}

		var activity models.Activity
		if err := f.db.Where("subject_id = ? AND event = ?", task.ID, models.ActivityEventUpdated).First(&activity).Error; err != nil {
			t.Fatalf("load activity: %v", err)
		}

		var props struct {
			Attributes map[string]int `json:"attributes"`
			Old        map[string]int `json:"old"`
		}
		if err := json.Unmarshal(activity.Properties, &props); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if props.Attributes["priority"] != 4 || props.Old["priority"] != 1 {
			t.Errorf("unexpected properties %+v", props)
		}
		if _, ok := props.Attributes["status"]; ok {
			t.Error("status must not be logged for a priority change")
		}
	})

	t.Run("Given priority zero, When updating, Then it is rejected", func(t *testing.T) {
		_, err := f.svc.Tasks.UpdatePriority(f.ctx, alice.ID, task.ID, 0)
		assertValidation(t, err, "priority")
	})

	t.Run("Given an unknown task, When updating, Then it is not found", func(t *testing.T) {
		_, err := f.svc.Tasks.UpdatePriority(f.ctx, alice.ID, 9999, 2)
		assertNotFound(t, err)
	})
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, alice, "Roadmap", bob)
	task := testutil.CreateTask(t, f.db, &models.Task{ProjectID: project.ID, Title: "Obsolete", AssignedToID: testutil.UintPtr(bob.ID)})

	if _, err := f.svc.Comments.AddComment(f.ctx, bob.ID, task.ID, "on it"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	t.Run("Given the assignee, When deleting, Then it is forbidden", func(t *testing.T) {
		_, err := f.svc.Tasks.DeleteTask(f.ctx, bob.ID, task.ID)
		assertForbidden(t, err)
	})

	t.Run("Given the owner, When deleting, Then the task and its comments are gone", func(t *testing.T) {
		if _, err := f.svc.Tasks.DeleteTask(f.ctx, alice.ID, task.ID); err != nil {
			t.Fatalf("DeleteTask: %v", err)
		}
		if n := f.count(t, &models.Task{}, "id = ?", task.ID); n != 0 {
			t.Errorf("expected task deleted, got %d", n)
		}
		if n := f.count(t, &models.Comment{}, "task_id = ?", task.ID); n != 0 {
			t.Errorf("expected comments deleted, got %d", n)
		}
	})
}

// racingAuthorizer commits a competing write after the service has loaded the
// task and before its own transaction starts.
type racingAuthorizer struct {
	next       policy.Authorizer
	BeforeFunc func()
}

func (a *racingAuthorizer) Authorize(actorID uint, action policy.Action, target policy.Target) error {
	if a.BeforeFunc != nil {
		a.BeforeFunc()
	}
	return a.next.Authorize(actorID, action, target)
}

func TestUpdateStatusConcurrentSameValue(t *testing.T) {
	gdb := testutil.NewDB(t)
	alice := testutil.CreateUser(t, gdb, "Alice", "alice@example.com")
	project := testutil.CreateProject(t, gdb, alice, "Roadmap")
	task := testutil.CreateTask(t, gdb, &models.Task{ProjectID: project.ID, Title: "Ship"})

	authz := &racingAuthorizer{next: policy.New()}
	authz.BeforeFunc = func() {
		if err := gdb.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.StatusCompleted).Error; err != nil {
			t.Fatalf("competing update: %v", err)
		}
	}
	svc := New(Deps{DB: gdb, Authorizer: authz})

	got, err := svc.Tasks.UpdateStatus(context.Background(), alice.ID, task.ID, int(models.StatusCompleted))
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("Status = %v, want Completed", got.Status)
	}

	n := testutil.CountRows(t, gdb, &models.Activity{}, "subject_id = ? AND event = ?", task.ID, models.ActivityEventUpdated)
	if n != 0 {
		t.Errorf("updated activities = %d, want 0 for a value already committed", n)
	}
}
