package services

import (
	"context"
	"errors"
	"strings"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid email or password")

const emailTaken = "The email has already been taken."

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name            string `json:"name" validate:"omitempty,max=255"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,min=8"`
}

type UserService struct {
	*core
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, in.Email, 0)
	if err != nil {
		return nil, s.fail("user-register", err)
	}
	if taken {
		return nil, apperr.NewValidation("email", emailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, s.fail("user-register", err)
	}

	user := models.User{Name: in.Name, Email: in.Email, PasswordHash: string(hash)}
	err = s.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.NewValidation("email", emailTaken)
	}
	if err != nil {
		return nil, s.fail("user-register", err)
	}

	return &user, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.fail("user-login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Entity: "user", ID: id}
	}
	if err != nil {
		return nil, s.fail("user-get", err)
	}
	return &user, nil
}

// UpdateProfile changes the provided fields of userID. A new password needs
// the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if in.Name != "" {
		updates["name"] = in.Name
	}

	if in.Email != "" && in.Email != user.Email {
		taken, err := s.emailTaken(ctx, in.Email, user.ID)
		if err != nil {
			return nil, s.fail("update-profile", err)
		}
		if taken {
			return nil, apperr.NewValidation("email", emailTaken)
		}
		updates["email"] = in.Email
	}

	if in.NewPassword != "" {
		if in.CurrentPassword == "" {
			return nil, apperr.NewValidation("current_password", "The current password field is required.")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			return nil, apperr.NewValidation("current_password", "The password is incorrect.")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, s.fail("update-profile", err)
		}
		updates["password_hash"] = string(hash)
	}

	if len(updates) == 0 {
		return user, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(user).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.NewValidation("email", emailTaken)
	}
	if err != nil {
		return nil, s.fail("update-profile", err)
	}

	return s.Get(ctx, user.ID)
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&count).Error
	return count > 0, err
}

// SeedUser is a demo account created by Seed.
type SeedUser struct {
	Name  string
	Email string
}

var DefaultSeedUsers = []SeedUser{
	{Name: "Anggit Ari Utomo", Email: "anggit@anggit.com"},
	{Name: "Pucuk Pisang", Email: "pucukpisang35@gmail.com"},
}

// Seed creates the given users with password when they do not exist yet
// and reports how many were created.
func (s *UserService) Seed(ctx context.Context, users []SeedUser, password string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, u := range users {
		email := strings.ToLower(u.Email)

		taken, err := s.emailTaken(ctx, email, 0)
		if err != nil {
			return created, s.fail("user-seed", err)
		}
		if taken {
			continue
		}

		user := models.User{Name: u.Name, Email: email, PasswordHash: string(hash)}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return created, s.fail("user-seed", err)
		}

		created++
		logging.Logger.Infof("Event ID: USER_SEEDED, Description: Seeded user %s", user.Email)
	}

	return created, nil
}
