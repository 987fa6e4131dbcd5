package handlers

import (
	"context"
	"net/http"

	"github.com/berai-dev/berai/internal/analytics"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	notificationLimit = 50
	historyLimit      = 100
)

type NotificationInbox interface {
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
}

type ActivityArchive interface {
	ForProject(ctx context.Context, projectID uint, limit int64) ([]analytics.ProjectActivity, error)
}

// WithInbox enables GET /api/notifications.
func (h *Handler) WithInbox(inbox NotificationInbox) *Handler {
	h.inbox = inbox
	return h
}

// WithArchive enables the mirrored project history.
func (h *Handler) WithArchive(archive ActivityArchive) *Handler {
	h.archive = archive
	return h
}

func (h *Handler) ListNotifications(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	if h.inbox == nil {
		ctx.JSON(http.StatusOK, gin.H{"notifications": []models.Notification{}})
		return
	}

	items, err := h.inbox.ListForUser(ctx.Request.Context(), actor, notificationLimit)
	if err != nil {
		logging.Logger.Errorf("Event ID: INBOX_READ_FAILED, Description: Failed to list notifications for user %d: %v", actor, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data. Please try again."})
		return
	}
	if items == nil {
		items = []models.Notification{}
	}

	ctx.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *Handler) ProjectHistory(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	if err := h.svc.Queries.AuthorizeView(ctx.Request.Context(), actor, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	if h.archive == nil {
		ctx.JSON(http.StatusOK, gin.H{"history": []analytics.ProjectActivity{}})
		return
	}

	items, err := h.archive.ForProject(ctx.Request.Context(), projectID, historyLimit)
	if err != nil {
		logging.Logger.Errorf("Event ID: HISTORY_READ_FAILED, Description: Failed to read history of project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data. Please try again."})
		return
	}
	if items == nil {
		items = []analytics.ProjectActivity{}
	}

	ctx.JSON(http.StatusOK, gin.H{"history": items})
}
