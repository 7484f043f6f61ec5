package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetrack/app/middleware"
	"timetrack/internal/model"
	"timetrack/pkg/logger"
)

const (
	levelInfo    = "info"
	levelWarning = "warning"
)

// respondError maps domain errors to HTTP responses
func respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var fieldErr *model.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": fieldErr.Message, "field": fieldErr.Field})
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrAlreadyRunning):
		c.JSON(http.StatusOK, gin.H{"message": "counter is already running", "level": levelInfo})
	case errors.Is(err, model.ErrNoActiveInterval):
		c.JSON(http.StatusOK, gin.H{"message": "counter has no active interval", "level": levelInfo})
	case errors.Is(err, model.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflictMessage(err), "level": levelWarning})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		logger.ErrorCtx(ctx, "request failed, path: %s, error: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// conflictMessage strips the sentinel suffix so only the user-facing part remains
func conflictMessage(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+model.ErrConflict.Error())
}

// bindJSON decodes the body, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.WarnCtx(c.Request.Context(), "invalid request body: %v", err)
		var fieldErr *model.FieldError
		if errors.As(err, &fieldErr) {
			respondError(c, err)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// pathID parses a positive numeric path parameter; anything else is treated as a missing resource
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

func ownerID(c *gin.Context) int64 {
	return middleware.OwnerID(c)
}
