package handlers

import (
	"net/http"

	"github.com/berai-dev/berai/internal/services"
	"github.com/berai-dev/berai/internal/types"
	"github.com/gin-gonic/gin"
)

type ProjectDetailResponse struct {
	Project    types.ProjectResponse    `json:"project"`
	Members    []types.MemberResponse   `json:"members"`
	Tasks      []types.TaskResponse     `json:"tasks"`
	Activities []types.ActivityResponse `json:"activities"`
}

func summaryResponse(s services.ProjectSummary) types.ProjectResponse {
	resp := types.NewProjectResponse(s.Project)
	resp.TasksCount = &s.TasksCount
	resp.CompletedTasksCount = &s.CompletedTasksCount
	return resp
}

func summaryResponses(in []services.ProjectSummary) []types.ProjectResponse {
	out := make([]types.ProjectResponse, 0, len(in))
	for _, s := range in {
		out = append(out, summaryResponse(s))
	}
	return out
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	projects, err := h.svc.Queries.ListProjects(ctx.Request.Context(), actor, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"projects": summaryResponses(projects),
		"filters":  gin.H{"search": ctx.Query("search")},
	})
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}

	var req services.ProjectInput
	if !bindJSON(ctx, &req) {
		return
	}

	project, err := h.svc.Projects.CreateProject(ctx.Request.Context(), actor, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Project created",
		"project": types.NewProjectResponse(*project),
	})
}

func (h *Handler) ShowProject(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	filter, err := services.ParseTaskFilter(ctx.Query("search"), ctx.Query("priority"), ctx.Query("status"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	detail, err := h.svc.Queries.ShowProject(ctx.Request.Context(), actor, projectID, filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	activities := make([]types.ActivityResponse, 0, len(detail.Activities))
	for _, a := range detail.Activities {
		activities = append(activities, types.NewActivityResponse(a))
	}

	ctx.JSON(http.StatusOK, ProjectDetailResponse{
		Project:    types.NewProjectResponse(*detail.Project),
		Members:    types.NewMemberResponses(detail.Project.ProjectMemberships),
		Tasks:      types.NewTaskResponses(detail.Tasks),
		Activities: activities,
	})
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	var req services.ProjectInput
	if !bindJSON(ctx, &req) {
		return
	}

	project, err := h.svc.Projects.UpdateProject(ctx.Request.Context(), actor, projectID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(project.ID)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Project details have been updated.",
		"project": types.NewProjectResponse(*project),
	})
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	if err := h.svc.Projects.DeleteProject(ctx.Request.Context(), actor, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project has been deleted"})
}

func (h *Handler) ListMembers(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	members, err := h.svc.Members.Members(ctx.Request.Context(), actor, projectID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"members": types.NewMemberResponses(members)})
}

func (h *Handler) InviteMember(ctx *gin.Context) {
	actor, ok := actorID(ctx)
	if !ok {
		return
	}
	projectID, ok := projectParam(ctx)
	if !ok {
		return
	}

	var req services.InviteInput
	if !bindJSON(ctx, &req) {
		return
	}

	membership, err := h.svc.Members.InviteMember(ctx.Request.Context(), actor, projectID, req.Email)
	if err != nil {
		respondError(ctx, err)
		return
	}

	h.refresh(projectID)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Member added successfully",
		"member":  types.MemberResponse{UserResponse: types.NewUserResponse(membership.User), Role: membership.Role},
	})
}
