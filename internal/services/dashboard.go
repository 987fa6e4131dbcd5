package services

import (
	"context"
	"math"
	"time"

	"github.com/berai-dev/berai/internal/models"
)

const (
	openTaskLimit  = 5
	upcomingWindow = 7 * 24 * time.Hour
)

type Analytics struct {
	CompletionRate  int              `json:"completion_rate"`
	TotalUserTasks  int64            `json:"total_user_tasks"`
	TaskStatusCount map[string]int64 `json:"task_status_count"`
	TotalProjects   int64            `json:"total_projects"`
	OwnedProjects   int64            `json:"owned_projects"`
}

type Dashboard struct {
	Projects      []ProjectSummary `json:"projects"`
	OpenTasks     []models.Task    `json:"open_tasks"`
	UpcomingTasks []models.Task    `json:"upcoming_tasks"`
	Analytics     Analytics        `json:"analytics"`
}

type statusCount struct {
	Status models.TaskStatus
	Count  int64
}

type DashboardService struct {
	*core
}

// Dashboard aggregates the actor's projects and assigned tasks.
func (s *DashboardService) Dashboard(ctx context.Context, actorID uint) (*Dashboard, error) {
	d, err := s.build(ctx, actorID)
	if err != nil {
		return nil, s.fail("dashboard", err)
	}
	return d, nil
}

func (s *DashboardService) build(ctx context.Context, actorID uint) (*Dashboard, error) {
	db := s.db.WithContext(ctx)

	projects, err := s.memberProjects(ctx, actorID, "")
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Projects:      projects,
		OpenTasks:     []models.Task{},
		UpcomingTasks: []models.Task{},
		Analytics: Analytics{
			TaskStatusCount: map[string]int64{},
			TotalProjects:   int64(len(projects)),
		},
	}

	projectIDs := make([]uint, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
		if p.OwnerID == actorID {
			d.Analytics.OwnedProjects++
		}
	}

	err = db.Preload("Project").
		Where("assigned_to_id = ? AND status <> ?", actorID, models.StatusCompleted).
		Order(dueDateDesc).
		Limit(openTaskLimit).
		Find(&d.OpenTasks).Error
	if err != nil {
		return nil, err
	}

	if len(projectIDs) > 0 {
		var rows []statusCount
		err = db.Model(&models.Task{}).
			Select("status, COUNT(*) AS count").
			Where("project_id IN ?", projectIDs).
			Group("status").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			d.Analytics.TaskStatusCount[row.Status.Label()] = row.Count
		}
	}

	now := s.now().UTC()
	err = db.Preload("Project").
		Where("assigned_to_id = ? AND status <> ?", actorID, models.StatusCompleted).
		Where("due_date BETWEEN ? AND ?", now, now.Add(upcomingWindow)).
		Order("due_date ASC, id ASC").
		Find(&d.UpcomingTasks).Error
	if err != nil {
		return nil, err
	}

	var completed int64
	if err := db.Model(&models.Task{}).Where("assigned_to_id = ?", actorID).Count(&d.Analytics.TotalUserTasks).Error; err != nil {
		return nil, err
	}
	err = db.Model(&models.Task{}).
		Where("assigned_to_id = ? AND status = ?", actorID, models.StatusCompleted).
		Count(&completed).Error
	if err != nil {
		return nil, err
	}

	d.Analytics.CompletionRate = CompletionRate(completed, d.Analytics.TotalUserTasks)

	return d, nil
}

// CompletionRate is completed/total as a rounded percentage, 0 when total is 0.
func CompletionRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
