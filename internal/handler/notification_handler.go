package handler

import (
	"net/http"

	"mountain-sentinel/internal/middleware"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Admins share one inbox; citizens read their own.
func recipientOf(c *gin.Context) string {
	id, _ := middleware.CurrentIdentity(c)
	if id.Admin {
		return model.RecipientAdmin
	}
	return id.UserID
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	response, err := h.notificationService.List(c.Request.Context(), recipientOf(c))
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *NotificationHandler) StreamNotifications(c *gin.Context) {
	sseHeaders(c)

	client := h.notificationService.RegisterClient(recipientOf(c))
	defer h.notificationService.UnregisterClient(client)

	c.SSEvent("connected", gin.H{"message": "SSE connection established"})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case notification, ok := <-client.Channel:
			if !ok {
				return
			}
			c.SSEvent("notification", notification)
			c.Writer.Flush()
		}
	}
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), id, recipientOf(c)); err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), recipientOf(c)); err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}
