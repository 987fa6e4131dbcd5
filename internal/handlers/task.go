package handlers

import (
	"net/http"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/models"
	"github.com/berai-dev/berai/internal/services"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

type UpdateStatusRequest struct {
	Status *int `json:"status"`
}

type UpdatePriorityRequest struct {
	Priority *int `json:"priority"`
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	filter, err := services.ParseTaskFilter(ctx.Query("search"), ctx.Query("priority"), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	tasks, err := h.svc.Queries.ListAssignedTasks(ctx.Request.Context(), actor, filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tasks": types.NewTaskResponses(tasks),
		"filters": gin.H{
			"search":   ctx.Query("search"),
			"priority": ctx.Query("priority"),
			"status":   ctx.Query("status"),
		},
		"taskStatuses":   models.StatusOptions(),
		"taskPriorities": models.PriorityOptions(),
	})
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	var req services.CreateTaskInput
	if !bindJSON(ctx, &req) {
		return
	}

	task, err := h.svc.Tasks.CreateTask(ctx.Request.Context(), actor, projectID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(task.ProjectID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    types.NewTaskResponse(*task),
	})
}

func (h *Handler) UpdateTaskStatus(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	taskID, ok := taskParam(ctx)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if req.Status == nil {
		respondError(ctx, apperr.NewValidation("status", "The status field is required."))
		return
	}

	task, err := h.svc.Tasks.UpdateStatus(ctx.Request.Context(), actor, taskID, *req.Status)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task status updated",
		"task":    types.NewTaskResponse(*task),
	})
}

func (h *Handler) UpdateTaskPriority(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	taskID, ok := taskParam(ctx)
	if !ok {
		return
	}

	var req UpdatePriorityRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if req.Priority == nil {
		respondError(ctx, apperr.NewValidation("priority", "The priority field is required."))
		return
	}

	task, err := h.svc.Tasks.UpdatePriority(ctx.Request.Context(), actor, taskID, *req.Priority)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task priority updated",
		"task":    types.NewTaskResponse(*task),
	})
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	taskID, ok := taskParam(ctx)
	if !ok {
		return
	}

	task, err := h.svc.Tasks.DeleteTask(ctx.Request.Context(), actor, taskID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(task.ProjectID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func (h *Handler) ListComments(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	taskID, ok := taskParam(ctx)
	if !ok {
		return
	}

	comments, err := h.svc.Comments.ListComments(ctx.Request.Context(), actor, taskID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	out := make([]types.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, types.NewCommentResponse(c))
	}

	ctx.JSON(http.StatusOK, gin.H{"comments": out})
}

func (h *Handler) AddComment(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	taskID, ok := taskParam(ctx)
	if !ok {
		return
	}

	var req services.CommentInput
	if !bindJSON(ctx, &req) {
		return
	}

	comment, err := h.svc.Comments.AddComment(ctx.Request.Context(), actor, taskID, req.Body)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(comment.Task.ProjectID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Comment posted.",
		"comment": types.NewCommentResponse(*comment),
	})
}
