package handlers

import (
	"net/http"

	"github.com/berai-dev/berai/internal/health"
	"github.com/berai-dev/berai/internal/models"
	"github.com/gin-gonic/gin"
)

// Enums lists the task status and priority values with their labels.
func (h *Handler) Enums(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"statuses":   models.StatusOptions(),
		"priorities": models.PriorityOptions(),
	})
}

func (h *Handler) HealthCheck(ctx *gin.Context) {
	report := health.Run(ctx.Request.Context(), h.checks)

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}

	ctx.JSON(status, report)
}

// WebSocket upgrades a project member's connection and subscribes it to the
// project's refresh events.
func (h *Handler) WebSocket(ctx *gin.Context) {
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

	if h.realtime == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Realtime updates are disabled"})
		return
	}

	h.realtime.Serve(ctx, projectID)
}
