package services

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")

	t.Run("Given a name, When creating, Then the creator is owner and member", func(t *testing.T) {
		project, err := f.svc.Projects.CreateProject(f.ctx, alice.ID, ProjectInput{Name: "Roadmap", Description: "2026"})
		if err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
		if project.OwnerID != alice.ID {
			t.Errorf("OwnerID = %d, want %d", project.OwnerID, alice.ID)
		}

		var membership models.ProjectMembership
		if err := f.db.Where("project_id = ? AND user_id = ?", project.ID, alice.ID).First(&membership).Error; err != nil {
			t.Fatalf("owner membership missing: %v", err)
		}
		if membership.Role != models.RoleOwner {
			t.Errorf("Role = %q, want owner", membership.Role)
		}
	})

	t.Run("Given a blank name, When creating, Then it is rejected", func(t *testing.T) {
		_, err := f.svc.Projects.CreateProject(f.ctx, alice.ID, ProjectInput{Name: "  "})
		assertValidation(t, err, "name")
	})
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, alice, "Roadmap", bob)

	t.Run("Given a member, When renaming, Then it is forbidden", func(t *testing.T) {
		_, err := f.svc.Projects.UpdateProject(f.ctx, bob.ID, project.ID, ProjectInput{Name: "Mine"})
		assertForbidden(t, err)
	})

	t.Run("Given a member with a blank name, When renaming, Then it is forbidden rather than invalid", func(t *testing.T) {
		_, err := f.svc.Projects.UpdateProject(f.ctx, bob.ID, project.ID, ProjectInput{Name: " "})
		assertForbidden(t, err)
	})

	t.Run("Given the owner, When renaming, Then the name changes", func(t *testing.T) {
		got, err := f.svc.Projects.UpdateProject(f.ctx, alice.ID, project.ID, ProjectInput{Name: "Roadmap 2027"})
		if err != nil {
			t.Fatalf("UpdateProject: %v", err)
		}
		var stored models.Project
		f.db.First(&stored, project.ID)
		if got.Name != "Roadmap 2027" || stored.Name != "Roadmap 2027" || stored.OwnerID != alice.ID {
			t.Errorf("unexpected project: %+v", stored)
		}
	})
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	project := f.project(t, alice, "Roadmap", bob)
	other := f.project(t, alice, "Other")

	task, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{Title: "Plan", Priority: 1})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if _, err := f.svc.Comments.AddComment(f.ctx, bob.ID, task.ID, "hello"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	kept := testutil.CreateTask(t, f.db, &models.Task{ProjectID: other.ID, Title: "Keep"})

	t.Run("Given a member, When deleting, Then it is forbidden", func(t *testing.T) {
		assertForbidden(t, f.svc.Projects.DeleteProject(f.ctx, bob.ID, project.ID))
	})

	t.Run("Given the owner, When deleting, Then every dependent row is removed", func(t *testing.T) {
		if err := f.svc.Projects.DeleteProject(f.ctx, alice.ID, project.ID); err != nil {
			t.Fatalf("DeleteProject: %v", err)
		}

		checks := []struct {
			name  string
			model any
			query string
		}{
			{"projects", &models.Project{}, "id = ?"},
			{"tasks", &models.Task{}, "project_id = ?"},
			{"memberships", &models.ProjectMembership{}, "project_id = ?"},
			{"activities", &models.Activity{}, "project_id = ?"},
		}
		for _, c := range checks {
			if n := f.count(t, c.model, c.query, project.ID); n != 0 {
				t.Errorf("%s: expected 0 rows, got %d", c.name, n)
			}
		}
		if n := f.count(t, &models.Comment{}, "task_id = ?", task.ID); n != 0 {
			t.Errorf("comments: expected 0 rows, got %d", n)
		}
		if n := f.count(t, &models.Task{}, "id = ?", kept.ID); n != 1 {
			t.Errorf("other project's task must survive, got %d", n)
		}
	})
}

func TestInviteMember(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	carol := f.user(t, "Carol", "carol@example.com")
	project := f.project(t, alice, "Roadmap", bob)

	t.Run("Given a non-owner member, When inviting, Then it is forbidden and nothing is written", func(t *testing.T) {
		before := f.count(t, &models.ProjectMembership{}, "project_id = ?", project.ID)

		_, err := f.svc.Members.InviteMember(f.ctx, bob.ID, project.ID, "carol@example.com")
		assertForbidden(t, err)

		if f.count(t, &models.ProjectMembership{}, "project_id = ?", project.ID) != before {
			t.Fatal("expected no membership change")
		}
	})

	t.Run("Given an existing member, When inviting, Then a duplicate error is returned", func(t *testing.T) {
		_, err := f.svc.Members.InviteMember(f.ctx, alice.ID, project.ID, "bob@example.com")

		var dup *apperr.DuplicateMemberError
		if !errors.As(err, &dup) {
			t.Fatalf("expected DuplicateMemberError, got %v", err)
		}
		if dup.FieldErrors()["email"] != "This user is already a member of the project" {
			t.Errorf("unexpected message %v", dup.FieldErrors())
		}
		if n := f.count(t, &models.ProjectMembership{}, "project_id = ? AND user_id = ?", project.ID, bob.ID); n != 1 {
			t.Errorf("expected exactly one membership, got %d", n)
		}
	})

	t.Run("Given an unknown email, When inviting, Then the email is invalid", func(t *testing.T) {
		_, err := f.svc.Members.InviteMember(f.ctx, alice.ID, project.ID, "nobody@example.com")
		assertValidation(t, err, "email")
	})

	t.Run("Given a malformed email, When inviting, Then the email is invalid", func(t *testing.T) {
		_, err := f.svc.Members.InviteMember(f.ctx, alice.ID, project.ID, "not-an-email")
		assertValidation(t, err, "email")
	})

	t.Run("Given a registered user, When inviting, Then they become a member", func(t *testing.T) {
		membership, err := f.svc.Members.InviteMember(f.ctx, alice.ID, project.ID, " Carol@Example.com ")
		if err != nil {
			t.Fatalf("InviteMember: %v", err)
		}
		if membership.UserID != carol.ID || membership.Role != models.RoleMember {
			t.Errorf("unexpected membership %+v", membership)
		}

		members, err := f.svc.Members.Members(f.ctx, carol.ID, project.ID)
		if err != nil {
			t.Fatalf("Members: %v", err)
		}
		if len(members) != 3 || members[0].User.ID != alice.ID {
			t.Errorf("unexpected members %+v", members)
		}
	})
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	carol := f.user(t, "Carol", "carol@example.com")
	project := f.project(t, alice, "Roadmap", bob)
	task := testutil.CreateTask(t, f.db, &models.Task{ProjectID: project.ID, Title: "Discuss"})

	t.Run("Given a member, When commenting, Then the comment is stored with its author", func(t *testing.T) {
		comment, err := f.svc.Comments.AddComment(f.ctx, bob.ID, task.ID, "Looks good")
		if err != nil {
			t.Fatalf("AddComment: %v", err)
		}
		if comment.User.ID != bob.ID || comment.Body != "Looks good" {
			t.Errorf("unexpected comment %+v", comment)
		}
	})

	t.Run("Given an empty body, When commenting, Then it is rejected", func(t *testing.T) {
		_, err := f.svc.Comments.AddComment(f.ctx, bob.ID, task.ID, "   ")
		assertValidation(t, err, "body")
	})

	t.Run("Given a non-member, When commenting, Then it is forbidden", func(t *testing.T) {
		_, err := f.svc.Comments.AddComment(f.ctx, carol.ID, task.ID, "hi")
		assertForbidden(t, err)
	})

	t.Run("Given comments, When listing, Then they are oldest first", func(t *testing.T) {
		if _, err := f.svc.Comments.AddComment(f.ctx, alice.ID, task.ID, "Thanks"); err != nil {
			t.Fatalf("AddComment: %v", err)
		}

		comments, err := f.svc.Comments.ListComments(f.ctx, alice.ID, task.ID)
		if err != nil {
			t.Fatalf("ListComments: %v", err)
		}
		if len(comments) != 2 || comments[0].Body != "Looks good" || comments[1].Body != "Thanks" {
			t.Errorf("unexpected order %+v", comments)
		}
	})

	t.Run("Given a non-member, When listing, Then it is forbidden", func(t *testing.T) {
		_, err := f.svc.Comments.ListComments(f.ctx, carol.ID, task.ID)
		assertForbidden(t, err)
	})
}

func TestRoadmapScenario(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	project, err := f.svc.Projects.CreateProject(f.ctx, alice.ID, ProjectInput{Name: "Roadmap"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := f.svc.Members.InviteMember(f.ctx, alice.ID, project.ID, bob.Email); err != nil {
		t.Fatalf("InviteMember: %v", err)
	}

	task, err := f.svc.Tasks.CreateTask(f.ctx, alice.ID, project.ID, CreateTaskInput{
		Title:        "Plan Q3",
		AssignedToID: testutil.UintPtr(bob.ID),
		Priority:     int(models.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != models.StatusTodo || len(f.notifier.Calls()) != 1 {
		t.Fatalf("expected TODO task with one notification, got %v and %d", task.Status, len(f.notifier.Calls()))
	}

	if _, err := f.svc.Tasks.UpdateStatus(f.ctx, bob.ID, task.ID, int(models.StatusInProgress)); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	var activities []models.Activity
	f.db.Where("subject_id = ? AND event = ?", task.ID, models.ActivityEventUpdated).Find(&activities)
	if len(activities) != 1 {
		t.Fatalf("expected 1 update activity, got %d", len(activities))
	}
	if activities[0].CauserID != bob.ID || activities[0].ProjectID != project.ID {
		t.Errorf("unexpected activity %+v", activities[0])
	}
	if string(activities[0].Properties) != `{"attributes":{"status":2},"old":{"status":1}}` {
		t.Errorf("Properties = %s", activities[0].Properties)
	}

	mine, err := f.svc.Queries.ListAssignedTasks(f.ctx, bob.ID, TaskFilter{})
	if err != nil {
		t.Fatalf("ListAssignedTasks: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != models.StatusInProgress {
		t.Errorf("unexpected assigned tasks %+v", mine)
	}
}

func TestForbiddenInviteIsLogged(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice", "alice@example.com")
	bob := f.user(t, "Bob", "bob@example.com")
	carol := f.user(t, "Carol", "carol@example.com")
	project := f.project(t, alice, "Roadmap", bob, carol)

	logs := captureLog(t)

	_, err := f.svc.Members.InviteMember(f.ctx, carol.ID, project.ID, "dave@example.com")
	assertForbidden(t, err)

	line := logs.String()
	for _, want := range []string{"Event ID: FORBIDDEN", "add-member", "actor_id=" + itoa(carol.ID), "project_id=" + itoa(project.ID)} {
		if !strings.Contains(line, want) {
			t.Errorf("log %q is missing %q", line, want)
		}
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
