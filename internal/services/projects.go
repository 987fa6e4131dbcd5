package services

import (
	"context"
	"strings"

	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/policy"
	"github.com/berai-dev/berai/internal/validation"
	"gorm.io/gorm"
)

type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (in *ProjectInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	return validation.Struct(in)
}

type ProjectService struct {
	*core
}

// CreateProject stores a project owned by actorID, who also becomes its
// first member.
func (s *ProjectService) CreateProject(ctx context.Context, actorID uint, in ProjectInput) (*models.Project, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	project := models.Project{
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		membership := models.ProjectMembership{
			UserID:    actorID,
			ProjectID: project.ID,
			Role:      models.RoleOwner,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		project.ProjectMemberships = []models.ProjectMembership{membership}
		return nil
	})
	if err != nil {
		return nil, s.fail("project-create", err)
	}

	return &project, nil
}

// UpdateProject changes the name and description. The owner never changes.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, projectID uint, in ProjectInput) (*models.Project, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("project-update", err)
	}

	if err := s.authorize(actorID, policy.ActionUpdateProject, policy.ForProject(project)); err != nil {
		return nil, err
	}

	if err := in.normalize(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Project{}).Where("id = ?", project.ID).Updates(map[string]interface{}{
			"name":        in.Name,
			"description": in.Description,
		}).Error
	})
	if err != nil {
		return nil, s.fail("project-update", err)
	}

	project.Name = in.Name
	project.Description = in.Description

	return project, nil
}

// DeleteProject removes the project with its tasks, their comments, its
// activities and its memberships.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, projectID uint) error {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return s.fail("project-delete", err)
	}

	if err := s.authorize(actorID, policy.ActionDeleteProject, policy.ForProject(project)); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Unscoped().Model(&models.Task{}).Where("project_id = ?", project.ID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Unscoped().Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}

		steps := []struct {
			model any
			where string
		}{
			{&models.Activity{}, "project_id = ?"},
			{&models.Task{}, "project_id = ?"},
			{&models.ProjectMembership{}, "project_id = ?"},
			{&models.Project{}, "id = ?"},
		}
		for _, step := range steps {
			if err := tx.Unscoped().Where(step.where, project.ID).Delete(step.model).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return s.fail("project-delete", err)
	}

	return nil
}
