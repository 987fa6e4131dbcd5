package handlers

import (
	"net/http"

	"github.com/berai-dev/berai/internal/auth"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/services"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.TokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) issueToken(ctx *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Email)
	if err != nil {
		logging.Logger.Errorf("Event ID: JWT_FAILED, Description: Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.setTokenCookie(ctx, token, int(auth.TokenTTL.Seconds()))

	ctx.JSON(status, gin.H{
		"user":  types.NewUserResponse(*user),
		"token": token,
	})
}

func (h *Handler) Register(ctx *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Users.Register(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.issueToken(ctx, http.StatusCreated, user)
}

func (h *Handler) Login(ctx *gin.Context) {
	var req services.LoginInput
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Users.Login(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.issueToken(ctx, http.StatusOK, user)
}

func (h *Handler) Logout(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) Me(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	user, err := h.svc.Users.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": types.NewUserResponse(*user)})
}

func (h *Handler) UpdateMe(ctx *gin.Context) {
	id, ok := actorID(ctx)
	if !ok {
		return
	}

	var req services.ProfileInput
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := h.svc.Users.UpdateProfile(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully.",
		"user":    types.NewUserResponse(*user),
	})
}
