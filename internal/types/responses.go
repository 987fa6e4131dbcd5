package types

import (
	"time"

	"github.com/berai-dev/berai/internal/models"
)

type UserResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

func NewUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

type ProjectRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type TaskResponse struct {
	ID            uint          `json:"id"`
	ProjectID     uint          `json:"project_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	DueDate       *string       `json:"due_date"`
	Status        int           `json:"status"`
	StatusLabel   string        `json:"status_label"`
	Priority      int           `json:"priority"`
	PriorityLabel string        `json:"priority_label"`
	Project       *ProjectRef   `json:"project,omitempty"`
	AssignedUser  *UserResponse `json:"assigned_user"`
	CreatedAt     time.Time     `json:"created_at"`
}

func NewTaskResponse(t models.Task) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        int(t.Status),
		StatusLabel:   t.Status.Label(),
		Priority:      int(t.Priority),
		PriorityLabel: t.Priority.Label(),
		CreatedAt:     t.CreatedAt,
	}

	if t.DueDate != nil {
		due := t.DueDate.Format("2006-01-02")
		resp.DueDate = &due
	}
	if t.Project.ID != 0 {
		resp.Project = &ProjectRef{ID: t.Project.ID, Name: t.Project.Name}
	}
	if t.AssignedUser != nil {
		u := NewUserResponse(*t.AssignedUser)
		resp.AssignedUser = &u
	}

	return resp
}

func NewTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}

type ProjectResponse struct {
	ID                  uint          `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	OwnerID             uint          `json:"owner_id"`
	Owner               *UserResponse `json:"owner,omitempty"`
	TasksCount          *int64        `json:"tasks_count,omitempty"`
	CompletedTasksCount *int64        `json:"completed_tasks_count,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}

func NewProjectResponse(p models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
	}
	if p.Owner.ID != 0 {
		owner := NewUserResponse(p.Owner)
		resp.Owner = &owner
	}
	return resp
}

type MemberResponse struct {
	UserResponse
	Role string `json:"role"`
}

func NewMemberResponses(memberships []models.ProjectMembership) []MemberResponse {
	out := make([]MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, MemberResponse{UserResponse: NewUserResponse(m.User), Role: m.Role})
	}
	return out
}

type CommentResponse struct {
	ID        uint         `json:"id"`
	TaskID    uint         `json:"task_id"`
	Body      string       `json:"body"`
	User      UserResponse `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

func NewCommentResponse(c models.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		Body:      c.Body,
		User:      NewUserResponse(c.User),
		CreatedAt: c.CreatedAt,
	}
}

type ActivityResponse struct {
	ID          uint         `json:"id"`
	Description string       `json:"description"`
	Event       string       `json:"event"`
	SubjectID   uint         `json:"subject_id"`
	Causer      UserResponse `json:"causer"`
	Properties  any          `json:"properties"`
	CreatedAt   time.Time    `json:"created_at"`
}

func NewActivityResponse(a models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		Description: a.Description,
		Event:       a.Event,
		SubjectID:   a.SubjectID,
		Causer:      NewUserResponse(a.Causer),
		Properties:  a.Properties,
		CreatedAt:   a.CreatedAt,
	}
}
