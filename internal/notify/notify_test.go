package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/berai-dev/berai/internal/models"
)

type mockNotifier struct {
	TaskAssignedFunc func(ctx context.Context, a Assignment) error
}

func (m *mockNotifier) TaskAssigned(ctx context.Context, a Assignment) error {
	if m.TaskAssignedFunc != nil {
		return m.TaskAssignedFunc(ctx, a)
	}
	return nil
}

func sampleAssignment() Assignment {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Assignment{
		TaskID:        4,
		TaskTitle:     "Write release notes",
		Priority:      "High",
		DueDate:       &due,
		ProjectID:     2,
		ProjectName:   "Roadmap",
		AssigneeID:    9,
		AssigneeName:  "Bob",
		AssigneeEmail: "bob@example.com",
		ProjectURL:    "http://localhost:5173/projects/2",
	}
}

func TestNewAssignment(t *testing.T) {
	assignee := &models.User{Name: "Bob", Email: "bob@example.com"}
	assignee.ID = 9

	tests := []struct {
		name   string
		task   models.Task
		wantOK bool
	}{
		{
			name:   "Given an unassigned task, When building, Then there is nothing to send",
			task:   models.Task{Title: "Loose end"},
			wantOK: false,
		},
		{
			name: "Given an assigned task, When building, Then the project link is included",
			task: models.Task{
				Title:        "Plan Q3",
				ProjectID:    2,
				Priority:     models.PriorityUrgent,
				Project:      models.Project{Name: "Roadmap"},
				AssignedUser: assignee,
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := NewAssignment(tt.task, "http://app.test/")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if a.ProjectURL != "http://app.test/projects/2" {
				t.Errorf("ProjectURL = %q", a.ProjectURL)
			}
			if a.Priority != "Urgent" || a.AssigneeID != 9 || a.DueDateLabel() != "N/A" {
				t.Errorf("unexpected assignment: %+v", a)
			}
		})
	}
}

func TestMulti(t *testing.T) {
	var calls int
	ok := &mockNotifier{TaskAssignedFunc: func(context.Context, Assignment) error {
		calls++
		return nil
	}}
	failing := &mockNotifier{TaskAssignedFunc: func(context.Context, Assignment) error {
		calls++
		return errors.New("boom")
	}}

	err := Multi{failing, ok}.TaskAssigned(context.Background(), sampleAssignment())

	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both notifiers to run, got %d calls", calls)
	}
}

func TestWebhookNotifier(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		status   int
		wantErr  bool
		wantBody string
	}{
		{
			name:     "Given a slack webhook, When notifying, Then the attachment carries the task",
			kind:     KindSlack,
			status:   http.StatusOK,
			wantBody: `"title":"Write release notes"`,
		},
		{
			name:     "Given a discord webhook, When notifying, Then the embed carries the due date",
			kind:     KindDiscord,
			status:   http.StatusNoContent,
			wantBody: `"value":"2026-03-01"`,
		},
		{
			name:    "Given a failing endpoint, When notifying, Then an error is returned",
			kind:    KindSlack,
			status:  http.StatusInternalServerError,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var raw json.RawMessage
				if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
					t.Errorf("invalid JSON body: %v", err)
				}
				body = string(raw)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			n, err := NewWebhookNotifier(srv.URL, tt.kind, time.Second)
			if err != nil {
				t.Fatalf("NewWebhookNotifier: %v", err)
			}

			err = n.TaskAssigned(context.Background(), sampleAssignment())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantBody != "" && !strings.Contains(body, tt.wantBody) {
				t.Errorf("body %s does not contain %s", body, tt.wantBody)
			}
		})
	}
}

func TestWebhookNotifierRejectsUnknownKind(t *testing.T) {
	if _, err := NewWebhookNotifier("http://example.test", "teams", 0); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestWebhookNotifierOpensBreaker(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(srv.URL, KindSlack, time.Second)
	if err != nil {
		t.Fatalf("NewWebhookNotifier: %v", err)
	}

	for i := 0; i < 6; i++ {
		_ = n.TaskAssigned(context.Background(), sampleAssignment())
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 4 {
		t.Fatalf("expected the breaker to stop calls after 4 failures, got %d hits", hits)
	}
}

func TestQueue(t *testing.T) {
	t.Run("Given queued assignments, When stopping, Then every one is delivered", func(t *testing.T) {
		var mu sync.Mutex
		var got []uint
		q := NewQueue(&mockNotifier{TaskAssignedFunc: func(_ context.Context, a Assignment) error {
			mu.Lock()
			got = append(got, a.TaskID)
			mu.Unlock()
			return nil
		}}, 10, time.Second)
		q.Start()

		for i := uint(1); i <= 3; i++ {
			a := sampleAssignment()
			a.TaskID = i
			if err := q.TaskAssigned(context.Background(), a); err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
		q.Stop()

		mu.Lock()
		defer mu.Unlock()
		if len(got) != 3 {
			t.Fatalf("expected 3 deliveries, got %v", got)
		}
	})

	t.Run("Given a full buffer, When enqueueing, Then the assignment is dropped", func(t *testing.T) {
		q := NewQueue(&mockNotifier{}, 1, time.Second)

		if err := q.TaskAssigned(context.Background(), sampleAssignment()); err != nil {
			t.Fatalf("first enqueue: %v", err)
		}
		if err := q.TaskAssigned(context.Background(), sampleAssignment()); !errors.Is(err, ErrQueueFull) {
			t.Fatalf("expected ErrQueueFull, got %v", err)
		}
		if q.Pending() != 1 {
			t.Fatalf("Pending() = %d, want 1", q.Pending())
		}
	})

	t.Run("Given a stopped queue, When enqueueing, Then it is rejected", func(t *testing.T) {
		q := NewQueue(&mockNotifier{}, 1, time.Second)
		q.Start()
		q.Stop()

		if err := q.TaskAssigned(context.Background(), sampleAssignment()); err == nil {
			t.Fatal("expected error after Stop")
		}
	})
}
