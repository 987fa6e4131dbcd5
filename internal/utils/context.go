package utils

import (
	"errors"

	"github.com/berai-dev/berai/internal/middleware"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

var (
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrBadContextUser   = errors.New("invalid user type in context")
)

// CurrentUser returns the user AuthMiddleware stored on the request.
func CurrentUser(ctx *gin.Context) (middleware.AuthenticatedUser, error) {
	value, exists := ctx.Get(types.ContextUserKey)
	if !exists {
		return middleware.AuthenticatedUser{}, ErrNotAuthenticated
	}

	user, ok := value.(middleware.AuthenticatedUser)
	if !ok {
		return middleware.AuthenticatedUser{}, ErrBadContextUser
	}

	return user, nil
}

// CurrentUserID is the id of CurrentUser, never zero on success.
func CurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	if user.ID == 0 {
		return 0, ErrNotAuthenticated
	}
	return user.ID, nil
}
