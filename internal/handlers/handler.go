package handlers

import (
	"errors"
	"net/http"

	"github.com/berai-dev/berai/internal/apperr"
	"github.com/berai-dev/berai/internal/health"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/berai-dev/berai/internal/services"
	"github.com/berai-dev/berai/internal/utils"
	"github.com/gin-gonic/gin"
)

// Realtime pushes refresh events to project watchers.
type Realtime interface {
	BroadcastRefresh(projectID uint)
	Serve(c *gin.Context, projectID uint)
}

type Handler struct {
	svc      *services.Services
	realtime Realtime
	checks   []health.Check
	domain   string
	inbox    NotificationInbox
	archive  ActivityArchive
}

func New(svc *services.Services, rt Realtime, checks []health.Check, domain string) *Handler {
	return &Handler{svc: svc, realtime: rt, checks: checks, domain: domain}
}

func (h *Handler) refresh(projectID uint) {
	if h.realtime != nil {
		h.realtime.BroadcastRefresh(projectID)
	}
}

// actorID reads the authenticated user or aborts with 401.
func actorID(ctx *gin.Context) (uint, bool) {
	id, err := utils.CurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return id, true
}

func projectParam(ctx *gin.Context) (uint, bool) {
	id, err := utils.GetProjectID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}

func taskParam(ctx *gin.Context) (uint, bool) {
	id, err := utils.GetTaskID(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return id, true
}

func bindJSON(ctx *gin.Context, dst any) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		logging.Logger.Debugf("Event ID: BIND_FAILED, Description: Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return false
	}
	return true
}

// respondError maps the service error taxonomy onto HTTP responses.
func respondError(ctx *gin.Context, err error) {
	var (
		valErr  *apperr.ValidationError
		dupErr  *apperr.DuplicateMemberError
		nfErr   *apperr.NotFoundError
		persErr *apperr.PersistenceError
	)

	switch {
	case errors.As(err, &valErr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "The given data was invalid.", "errors": valErr.Fields})
	case errors.As(err, &dupErr):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "The given data was invalid.", "errors": dupErr.FieldErrors()})
	case errors.As(err, &nfErr):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperr.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidCredentials):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
	case errors.As(err, &persErr):
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": apperr.RetryMessage(persErr.Op)})
	default:
		logging.Logger.Errorf("Event ID: UNHANDLED_ERROR, Description: %s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
