package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/policy"
	"gorm.io/gorm"
)

const filterAll = "all"

// TaskFilter narrows task listings. Nil enum fields match every value.
type TaskFilter struct {
	Search   string
	Priority *models.TaskPriority
	Status   *models.TaskStatus
}

// ParseTaskFilter reads raw query values. priority and status accept an
// empty string or "all" for no filter, or an in-range integer.
func ParseTaskFilter(search, priority, status string) (TaskFilter, error) {
	f := TaskFilter{Search: strings.TrimSpace(search)}
	fields := map[string]string{}

	if priority != "" && priority != filterAll {
		n, err := strconv.Atoi(priority)
		p, perr := models.ParseTaskPriority(n)
		if err != nil || perr != nil {
			fields["priority"] = "The selected priority is invalid."
		} else {
			f.Priority = &p
		}
	}

	if status != "" && status != filterAll {
		n, err := strconv.Atoi(status)
		st, serr := models.ParseTaskStatus(n)
		if err != nil || serr != nil {
			fields["status"] = "The selected status is invalid."
		} else {
			f.Status = &st
		}
	}

	if len(fields) > 0 {
		return TaskFilter{}, &apperr.ValidationError{Fields: fields}
	}
	return f, nil
}

func (f TaskFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Search != "" {
		q = q.Where("LOWER(tasks.title) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Priority != nil {
		q = q.Where("tasks.priority = ?", *f.Priority)
	}
	if f.Status != nil {
		q = q.Where("tasks.status = ?", *f.Status)
	}
	return q
}

// Tasks without a due date sort after every dated task.
const dueDateDesc = "CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date DESC, tasks.id DESC"

// ProjectSummary is a project with its task counters.
type ProjectSummary struct {
	models.Project
	TasksCount          int64 `json:"tasks_count"`
	CompletedTasksCount int64 `json:"completed_tasks_count"`
}

type taskCounts struct {
	ProjectID           uint
	TasksCount          int64
	CompletedTasksCount int64
}

// ProjectDetail is everything the project page shows.
type ProjectDetail struct {
	Project    *models.Project   `json:"project"`
	Tasks      []models.Task     `json:"tasks"`
	Activities []models.Activity `json:"activities"`
}

const recentActivityLimit = 25

type QueryService struct {
	*core
}

// ListAssignedTasks returns the actor's tasks, latest due date first.
func (s *QueryService) ListAssignedTasks(ctx context.Context, actorID uint, f TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	q := s.db.WithContext(ctx).
		Preload("Project").
		Preload("AssignedUser").
		Where("tasks.assigned_to_id = ?", actorID)

	if err := f.apply(q).Order(dueDateDesc).Find(&tasks).Error; err != nil {
		return nil, s.fail("task-list", err)
	}

	return tasks, nil
}

// ListProjectTasks returns a project's tasks, most urgent first and oldest
// first within a priority.
func (s *QueryService) ListProjectTasks(ctx context.Context, actorID, projectID uint, f TaskFilter) ([]models.Task, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("task-list", err)
	}

	if err := s.authorize(actorID, policy.ActionViewProject, policy.ForProject(project)); err != nil {
		return nil, err
	}

	tasks, err := s.projectTasks(ctx, project.ID, f)
	if err != nil {
		return nil, s.fail("task-list", err)
	}
	return tasks, nil
}

func (s *QueryService) projectTasks(ctx context.Context, projectID uint, f TaskFilter) ([]models.Task, error) {
	var tasks []models.Task

	q := s.db.WithContext(ctx).
		Preload("AssignedUser").
		Where("tasks.project_id = ?", projectID)

	err := f.apply(q).
		Order("tasks.priority DESC, tasks.created_at ASC, tasks.id ASC").
		Find(&tasks).Error
	return tasks, err
}

// ShowProject loads a project with its owner, members, filtered tasks and
// recent activity.
func (s *QueryService) ShowProject(ctx context.Context, actorID, projectID uint, f TaskFilter) (*ProjectDetail, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("project-show", err)
	}

	if err := s.authorize(actorID, policy.ActionViewProject, policy.ForProject(project)); err != nil {
		return nil, err
	}

	var full models.Project
	err = s.db.WithContext(ctx).
		Preload("Owner").
		Preload("ProjectMemberships", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("ProjectMemberships.User").
		First(&full, project.ID).Error
	if err != nil {
		return nil, s.fail("project-show", err)
	}

	tasks, err := s.projectTasks(ctx, project.ID, f)
	if err != nil {
		return nil, s.fail("project-show", err)
	}

	var activities []models.Activity
	err = s.db.WithContext(ctx).
		Preload("Causer").
		Where("project_id = ?", project.ID).
		Order("created_at DESC, id DESC").
		Limit(recentActivityLimit).
		Find(&activities).Error
	if err != nil {
		return nil, s.fail("project-show", err)
	}

	return &ProjectDetail{Project: &full, Tasks: tasks, Activities: activities}, nil
}

// ListProjects returns the projects actorID belongs to, newest first, with
// task counters.
func (s *QueryService) ListProjects(ctx context.Context, actorID uint, search string) ([]ProjectSummary, error) {
	projects, err := s.memberProjects(ctx, actorID, strings.TrimSpace(search))
	if err != nil {
		return nil, s.fail("project-list", err)
	}
	return projects, nil
}

func (c *core) memberProjects(ctx context.Context, actorID uint, search string) ([]ProjectSummary, error) {
	var projects []models.Project

	q := c.db.WithContext(ctx).
		Select("projects.*").
		Preload("Owner").
		Joins("JOIN project_memberships pm ON pm.project_id = projects.id AND pm.deleted_at IS NULL").
		Where("pm.user_id = ?", actorID)
	if search != "" {
		q = q.Where("LOWER(projects.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if err := q.Order("projects.created_at DESC, projects.id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	out := make([]ProjectSummary, 0, len(projects))
	if len(projects) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	var counts []taskCounts
	err := c.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("project_id, COUNT(*) AS tasks_count, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_tasks_count", models.StatusCompleted).
		Where("project_id IN ?", ids).
		Group("project_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byProject := make(map[uint]int, len(counts))
	for i, row := range counts {
		byProject[row.ProjectID] = i
	}

	for _, p := range projects {
		summary := ProjectSummary{Project: p}
		if i, ok := byProject[p.ID]; ok {
			summary.TasksCount = counts[i].TasksCount
			summary.CompletedTasksCount = counts[i].CompletedTasksCount
		}
		out = append(out, summary)
	}

	return out, nil
}

// AuthorizeView returns nil when actorID may see projectID.
func (s *QueryService) AuthorizeView(ctx context.Context, actorID, projectID uint) error {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return s.fail("project-show", err)
	}
	return s.authorize(actorID, policy.ActionViewProject, policy.ForProject(project))
}
