package handler

import (
	"context"
	"errors"
	"net/http"

	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/middleware"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/sos"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SOSHandler struct {
	manager *sos.Manager
}

func NewSOSHandler(manager *sos.Manager) *SOSHandler {
	return &SOSHandler{manager: manager}
}

// LocationUpdate is what the client posts while the countdown runs. Error
// carries the device's geolocation error code, if any.
type LocationUpdate struct {
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Accuracy     *float64 `json:"accuracy"`
	HighAccuracy bool     `json:"highAccuracy"`
	Error        string   `json:"error"`
}

const errCodePermissionDenied = "permission_denied"

// Handles POST /sos
func (h *SOSHandler) Trigger(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	session := h.manager.Start(sos.User{ID: id.UserID, Name: id.Name, Email: id.Email})

	c.JSON(http.StatusAccepted, gin.H{
		"sessionId": session.ID,
		"message":   "Sending emergency alert",
	})
}

// Handles POST /sos/:id/location
func (h *SOSHandler) PostLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req LocationUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	switch {
	case req.Error == errCodePermissionDenied:
		session.Locator.Deny()
		c.JSON(http.StatusOK, gin.H{"message": "location access denied; alert will be sent without location"})
		return
	case req.Error != "":
		// Transient device errors: the sequence keeps waiting for a fix.
		c.JSON(http.StatusOK, gin.H{"message": "location unavailable"})
		return
	case req.Lat == nil || req.Lng == nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	fix := sos.Fix{
		Location:     model.Location{Lat: *req.Lat, Lng: *req.Lng},
		Accuracy:     req.Accuracy,
		HighAccuracy: req.HighAccuracy,
	}
	if err := session.Locator.Post(fix); err != nil {
		if errors.Is(err, geo.ErrOutOfBounds) || errors.Is(err, geo.ErrLocationMissing) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "location received"})
}

// Handles GET /sos/:id/stream. Sends "progress" events during the
// countdown and then exactly one of "sent", "cancelled" or "failed".
func (h *SOSHandler) Stream(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	sseHeaders(c)
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case p := <-session.Progress():
			c.SSEvent("progress", p)
			c.Writer.Flush()
		case <-session.Done():
			h.drainProgress(c, session)
			h.writeResult(c, session)
			return
		}
	}
}

// Handles DELETE /sos/:id
func (h *SOSHandler) Cancel(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.CurrentIdentity(c)
	if err := h.manager.Cancel(id, identity.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "SOS cancelled"})
}

func (h *SOSHandler) session(c *gin.Context) (*sos.Session, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}
	identity, _ := middleware.CurrentIdentity(c)
	session, err := h.manager.Get(id, identity.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return session, true
}

func (h *SOSHandler) drainProgress(c *gin.Context, session *sos.Session) {
	for {
		select {
		case p := <-session.Progress():
			c.SSEvent("progress", p)
		default:
			return
		}
	}
}

func (h *SOSHandler) writeResult(c *gin.Context, session *sos.Session) {
	alert, err := session.Result()
	switch {
	case err == nil:
		c.SSEvent("sent", alert)
	case errors.Is(err, context.Canceled):
		c.SSEvent("cancelled", gin.H{"message": "SOS cancelled"})
	default:
		c.SSEvent("failed", gin.H{"error": MsgGenericFailure})
	}
	c.Writer.Flush()
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}
