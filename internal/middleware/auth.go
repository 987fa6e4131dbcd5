package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/berai-dev/berai/internal/auth"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

type AuthenticatedUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserGetter resolves the user a token was issued for.
type UserGetter interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware accepts a "Bearer" Authorization header or the token
// cookie set at login.
func AuthMiddleware(users UserGetter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, msg := bearerToken(ctx)
		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		userID, err := auth.VerifyJWT(tokenString)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := users.Get(ctx.Request.Context(), userID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		})
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) (string, string) {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader == "" {
		if cookie, err := ctx.Cookie(types.TokenCookie); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Authorization token is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "Authorization header format must be Bearer {token}"
	}

	return parts[1], ""
}
