package handler

import (
	"net/http"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/mapview"
	"mountain-sentinel/internal/messaging"
	"mountain-sentinel/internal/service"

	"github.com/gin-gonic/gin"
)

type MapHandler struct {
	reportService *service.ReportService
	hub           *messaging.ReportHub
}

func NewMapHandler(reportService *service.ReportService, hub *messaging.ReportHub) *MapHandler {
	return &MapHandler{reportService: reportService, hub: hub}
}

// Handles GET /map?priority= - the current marker layer.
func (h *MapHandler) GetLayer(c *gin.Context) {
	sel, err := filter.ParsePriority(c.Query("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.reportService.ListApproved(c.Request.Context(), filter.Criteria{})
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}

	c.JSON(http.StatusOK, mapview.Project(response.Reports, sel))
}

// Handles GET /map/stream?priority= - the layer is rebuilt from scratch on
// every approved snapshot and sent as a "layer" event.
func (h *MapHandler) StreamLayer(c *gin.Context) {
	sel, err := filter.ParsePriority(c.Query("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.hub.Subscribe(c.Request.Context(), messaging.ViewApproved)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	defer sub.Unsubscribe()

	projector := mapview.NewProjector(sel)

	sseHeaders(c)
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case reports, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("layer", projector.SetSnapshot(reports))
			c.Writer.Flush()
		}
	}
}
