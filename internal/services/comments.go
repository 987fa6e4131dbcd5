package services

import (
	"context"
	"strings"

	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/policy"
	"github.com/berai-dev/berai/internal/validation"
	"gorm.io/gorm"
)

type CommentInput struct {
	Body string `json:"body" validate:"required"`
}

type CommentService struct {
	*core
}

// AddComment posts body on a task as actorID.
func (s *CommentService) AddComment(ctx context.Context, actorID, taskID uint, body string) (*models.Comment, error) {
	task, err := s.loadTask(ctx, s.db, taskID)
	if err != nil {
		return nil, s.fail("post-comment", err)
	}

	if err := s.authorize(actorID, policy.ActionAddComment, policy.ForTask(task)); err != nil {
		return nil, err
	}

	in := CommentInput{Body: strings.TrimSpace(body)}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	comment := models.Comment{TaskID: task.ID, UserID: actorID, Body: in.Body}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, s.fail("post-comment", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, s.fail("post-comment", err)
	}
	comment.Task = *task

	return &comment, nil
}

// ListComments returns the comments of a task, oldest first.
func (s *CommentService) ListComments(ctx context.Context, actorID, taskID uint) ([]models.Comment, error) {
	task, err := s.loadTask(ctx, s.db, taskID)
	if err != nil {
		return nil, s.fail("comment-list", err)
	}

	if err := s.authorize(actorID, policy.ActionViewProject, policy.ForTask(task)); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", task.ID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, s.fail("comment-list", err)
	}

	return comments, nil
}
