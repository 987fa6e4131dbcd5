// Package policy decides whether an actor may perform an action on a project
// or task. Decisions are pure functions of the actor id and the target's
// attributes; nothing here touches the store.
package policy

import (
	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/models"
)

type Action uint8

const (
	ActionViewProject Action = iota + 1
	ActionUpdateProject
	ActionDeleteProject
	ActionAddMember
	ActionCreateTask
	ActionUpdateTask
	ActionDeleteTask
	ActionAddComment
)

func (a Action) String() string {
	switch a {
	case ActionViewProject:
		return "view-project"
	case ActionUpdateProject:
		return "update-project"
	case ActionDeleteProject:
		return "delete-project"
	case ActionAddMember:
		return "add-member"
	case ActionCreateTask:
		return "create-task"
	case ActionUpdateTask:
		return "update-task"
	case ActionDeleteTask:
		return "delete-task"
	case ActionAddComment:
		return "add-comment"
	}
	return "unknown"
}

// Target is the entity an action applies to. Project is required for every
// action and must have ProjectMemberships loaded for membership checks. Task
// is required for task actions.
type Target struct {
	Project *models.Project
	Task    *models.Task
}

// ForProject targets a project.
func ForProject(p *models.Project) Target {
	return Target{Project: p}
}

// ForTask targets a task, using its loaded Project.
func ForTask(t *models.Task) Target {
	return Target{Project: &t.Project, Task: t}
}

type Authorizer interface {
	Authorize(actorID uint, action Action, target Target) error
}

// Policy is the default Authorizer.
type Policy struct{}

func New() Policy {
	return Policy{}
}

// Can reports whether actorID may perform action on target.
func (Policy) Can(actorID uint, action Action, target Target) bool {
	if actorID == 0 || target.Project == nil {
		return false
	}
	project := *target.Project

	switch action {
	case ActionUpdateProject, ActionDeleteProject, ActionAddMember:
		return IsOwner(actorID, project)
	case ActionViewProject, ActionCreateTask:
		return IsMember(actorID, project)
	case ActionUpdateTask:
		if target.Task == nil {
			return false
		}
		return IsOwner(actorID, project) || target.Task.IsAssignedTo(actorID)
	case ActionDeleteTask:
		if target.Task == nil {
			return false
		}
		return IsOwner(actorID, project)
	case ActionAddComment:
		if target.Task == nil {
			return false
		}
		return IsMember(actorID, project)
	}

	return false
}

func (p Policy) Authorize(actorID uint, action Action, target Target) error {
	if !p.Can(actorID, action, target) {
		return &apperr.AuthorizationError{Action: action.String(), ActorID: actorID}
	}
	return nil
}

func IsOwner(actorID uint, project models.Project) bool {
	return project.OwnerID == actorID
}

func IsMember(actorID uint, project models.Project) bool {
	return project.HasMember(actorID)
}
