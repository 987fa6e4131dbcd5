// Package testutil provides reusable fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/berai-dev/berai/db"
	"github.com/berai-dev/berai/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Password is the plain-text password of every user created by CreateUser.
const Password = "password123"

// NewDB opens a migrated SQLite store in a per-test temp directory.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"

	gdb, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t *testing.T, gdb *gorm.DB, name, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}

	return user
}

// CreateProject inserts a project owned by owner together with the owner's
// membership and any extra members.
func CreateProject(t *testing.T, gdb *gorm.DB, owner *models.User, name string, members ...*models.User) *models.Project {
	t.Helper()

	project := &models.Project{Name: name, OwnerID: owner.ID}
	if err := gdb.Create(project).Error; err != nil {
		t.Fatalf("Failed to create project %s: %v", name, err)
	}

	AddMember(t, gdb, project, owner, models.RoleOwner)
	for _, m := range members {
		AddMember(t, gdb, project, m, models.RoleMember)
	}

	return project
}

// AddMember inserts a membership row directly.
func AddMember(t *testing.T, gdb *gorm.DB, project *models.Project, user *models.User, role string) {
	t.Helper()

	membership := models.ProjectMembership{UserID: user.ID, ProjectID: project.ID, Role: role}
	if err := gdb.Create(&membership).Error; err != nil {
		t.Fatalf("Failed to add member %d to project %d: %v", user.ID, project.ID, err)
	}
}

// CreateTask inserts a task directly, bypassing the workflow.
func CreateTask(t *testing.T, gdb *gorm.DB, task *models.Task) *models.Task {
	t.Helper()

	if task.Status == 0 {
		task.Status = models.StatusTodo
	}
	if task.Priority == 0 {
		task.Priority = models.PriorityLow
	}

	if err := gdb.Create(task).Error; err != nil {
		t.Fatalf("Failed to create task %s: %v", task.Title, err)
	}

	return task
}

// CountRows returns the number of live rows of model matching the condition.
func CountRows(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := gdb.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}

	return n
}

// UintPtr returns a pointer to v.
func UintPtr(v uint) *uint {
	return &v
}
