package handlers

import (
	"net/http"

	"github.com/berai-dev/berai/internal/services"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

type DashboardResponse struct {
	Projects      []types.ProjectResponse `json:"projects"`
	OpenTasks     []types.TaskResponse    `json:"open_tasks"`
	UpcomingTasks []types.TaskResponse    `json:"upcoming_tasks"`
	Analytics     services.Analytics      `json:"analytics"`
}

func (h *Handler) GetDashboard(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	d, err := h.svc.Dashboard.Dashboard(ctx.Request.Context(), actor)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, DashboardResponse{
		Projects:      summaryResponses(d.Projects),
		OpenTasks:     types.NewTaskResponses(d.OpenTasks),
		UpcomingTasks: types.NewTaskResponses(d.UpcomingTasks),
		Analytics:     d.Analytics,
	})
}
