package services

import (
	"context"
	"errors"
	"strings"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/policy"
	"github.com/berai-dev/berai/internal/validation"
	"gorm.io/gorm"
)

type InviteInput struct {
	Email string `json:"email" validate:"required,email"`
}

type MemberService struct {
	*core
}

// InviteMember adds the registered user with email to projectID. Only the
// owner may invite, and a user can be a member once.
func (s *MemberService) InviteMember(ctx context.Context, actorID, projectID uint, email string) (*models.ProjectMembership, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("member-invite", err)
	}

	if err := s.authorize(actorID, policy.ActionAddMember, policy.ForProject(project)); err != nil {
		return nil, err
	}

	in := InviteInput{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewValidation("email", "The selected email is invalid.")
	}
	if err != nil {
		return nil, s.fail("member-invite", err)
	}

	if project.HasMember(user.ID) {
		return nil, &apperr.DuplicateMemberError{ProjectID: project.ID, UserID: user.ID}
	}

	membership := models.ProjectMembership{
		UserID:    user.ID,
		ProjectID: project.ID,
		Role:      models.RoleMember,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&membership).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, &apperr.DuplicateMemberError{ProjectID: project.ID, UserID: user.ID}
	}
	if err != nil {
		return nil, s.fail("member-invite", err)
	}

	membership.User = user
	return &membership, nil
}

// Members lists the memberships of a project the actor belongs to, in join
// order.
func (s *MemberService) Members(ctx context.Context, actorID, projectID uint) ([]models.ProjectMembership, error) {
	project, err := s.loadProject(ctx, s.db, projectID)
	if err != nil {
		return nil, s.fail("member-list", err)
	}

	if err := s.authorize(actorID, policy.ActionViewProject, policy.ForProject(project)); err != nil {
		return nil, err
	}

	var memberships []models.ProjectMembership
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", project.ID).
		Order("id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, s.fail("member-list", err)
	}

	return memberships, nil
}
