package handler

import (
	"errors"
	"net/http"

	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/repository"
	"mountain-sentinel/internal/service"
	"mountain-sentinel/internal/workflow"

	"github.com/gin-gonic/gin"
)

const (
	MsgSubmitFailed   = "Submission failed. Please try again."
	MsgGenericFailure = "Something went wrong. Please try again."
)

// respondError maps domain errors onto HTTP statuses. Anything unexpected
// is logged and answered with fallback only.
func respondError(c *gin.Context, err error, fallback string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
	case errors.Is(err, repository.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
	case errors.Is(err, workflow.ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Component("http").WithError(err).
			WithField("method", c.Request.Method).
			WithField("path", c.FullPath()).
			Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
