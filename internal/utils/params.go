package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "project_id", "Project")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "task_id", "Task")
}

func getIDParam(ctx *gin.Context, param, entity string) (uint, error) {
	raw := ctx.Param(param)

	if raw == "" {
		return 0, errors.New(entity + " ID not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.New("Invalid " + entity + " ID")
	}

	return uint(id), nil
}
