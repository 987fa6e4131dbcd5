package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/notify"
	"github.com/berai-dev/berai/internal/testutil"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type mockNotifier struct {
	mu               sync.Mutex
	calls            []notify.Assignment
	TaskAssignedFunc func(ctx context.Context, a notify.Assignment) error
}

func (m *mockNotifier) TaskAssigned(ctx context.Context, a notify.Assignment) error {
	m.mu.Lock()
	m.calls = append(m.calls, a)
	m.mu.Unlock()

	if m.TaskAssignedFunc != nil {
		return m.TaskAssignedFunc(ctx, a)
	}
	return nil
}

func (m *mockNotifier) Calls() []notify.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Assignment(nil), m.calls...)
}

type mockSink struct {
	PublishFunc func(ctx context.Context, a models.Activity) error
	published   []models.Activity
}

func (m *mockSink) Publish(ctx context.Context, a models.Activity) error {
	m.published = append(m.published, a)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, a)
	}
	return nil
}

var fixedNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *Services
	notifier *mockNotifier
	sink     *mockSink
	ctx      context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := testutil.NewDB(t)
	f := &fixture{
		db:       gdb,
		notifier: &mockNotifier{},
		sink:     &mockSink{},
		ctx:      context.Background(),
	}
	f.svc = New(Deps{
		DB:       gdb,
		Notifier: f.notifier,
		Mirror:   f.sink,
		AppURL:   "http://app.test",
		Now:      func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, name, email)
}

func (f *fixture) project(t *testing.T, owner *models.User, name string, members ...*models.User) *models.Project {
	t.Helper()
	return testutil.CreateProject(t, f.db, owner, name, members...)
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	return testutil.CountRows(t, f.db, model, query, args...)
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields[field]; !ok {
		t.Fatalf("expected error on %q, got %v", field, ve.Fields)
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// captureLog redirects logging.Logger into a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	out, level := logging.Logger.Out, logging.Logger.GetLevel()
	logging.Logger.SetOutput(&buf)
	logging.Logger.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logging.Logger.SetOutput(out)
		logging.Logger.SetLevel(level)
	})

	return &buf
}
