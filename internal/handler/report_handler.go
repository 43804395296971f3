package handler

import (
	"context"
	"net/http"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/messaging"
	"mountain-sentinel/internal/middleware"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/service"
	"mountain-sentinel/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OutboxStats interface {
	GetStats(ctx context.Context) (map[string]int, error)
}

type ReportHandler struct {
	reportService *service.ReportService
	hub           *messaging.ReportHub
	outbox        OutboxStats
}

func NewReportHandler(reportService *service.ReportService, hub *messaging.ReportHub, outbox OutboxStats) *ReportHandler {
	return &ReportHandler{reportService: reportService, hub: hub, outbox: outbox}
}

func (h *ReportHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mountain-sentinel"})
}

// Handles POST /reports - citizen submission, always pending.
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	id, _ := middleware.CurrentIdentity(c)

	var req model.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.ReporterID = id.UserID
	if id.Name != "" {
		req.ReporterName = id.Name
	}
	if id.Email != "" {
		req.ReporterEmail = id.Email
	}
	req.IsAdminReport = false

	report, err := h.reportService.Submit(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, MsgSubmitFailed)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Report submitted and awaiting review",
		"report":  report,
	})
}

// Handles POST /admin/reports - published immediately.
func (h *ReportHandler) SubmitAdminReport(c *gin.Context) {
	var req model.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.reportService.SubmitAndApprove(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, MsgSubmitFailed)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Alert published",
		"report":  report,
	})
}

// Handles GET /reports/approved?priority=&q=
func (h *ReportHandler) GetApprovedReports(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}
	response, err := h.reportService.ListApproved(c.Request.Context(), criteria)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *ReportHandler) GetDashboard(c *gin.Context) {
	response, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Handles GET /reports/:id. Unapproved reports are only shown to admins.
func (h *ReportHandler) GetReportByID(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	report, err := h.reportService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	if !workflow.IsPublic(report) && !isAdmin(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Handles GET /admin/reports?view=&priority=&q=
func (h *ReportHandler) GetReports(c *gin.Context) {
	view, err := messaging.ParseView(c.DefaultQuery("view", string(messaging.ViewAll)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var response *model.ReportListResponse
	switch view {
	case messaging.ViewPending:
		response, err = h.reportService.ListPending(ctx)
	case messaging.ViewApproved:
		response, err = h.reportService.ListApproved(ctx, filter.Criteria{})
	default:
		response, err = h.reportService.ListAll(ctx)
	}
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}

	reports := filter.Apply(response.Reports, criteria)
	c.JSON(http.StatusOK, model.ReportListResponse{Reports: reports, Total: len(reports)})
}

// Handles PUT /admin/reports/:id
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}

	var req model.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.reportService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report updated", "report": report})
}

// Handles PATCH /admin/reports/:id/approve
func (h *ReportHandler) ApproveReport(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	report, err := h.reportService.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report approved", "report": report})
}

// Handles DELETE /admin/reports/:id?confirm=true
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := parseReportID(c)
	if !ok {
		return
	}
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"error": "deleting a report is permanent; repeat the request with confirm=true",
		})
		return
	}
	if err := h.reportService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted"})
}

// Handles GET /reports/stream?view= - one "snapshot" event per change.
// Views other than approved need an admin.
func (h *ReportHandler) StreamReports(c *gin.Context) {
	view, err := messaging.ParseView(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if view != messaging.ViewApproved && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	sub, err := h.hub.Subscribe(c.Request.Context(), view)
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	defer sub.Unsubscribe()

	log := logger.Component("http").WithField("view", sub.View())
	log.Debug("report stream opened")

	sseHeaders(c)
	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			log.Debug("report stream closed")
			return
		case reports, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("snapshot", model.ReportListResponse{Reports: reports, Total: len(reports)})
			c.Writer.Flush()
		}
	}
}

func (h *ReportHandler) GetOutboxStats(c *gin.Context) {
	stats, err := h.outbox.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err, MsgGenericFailure)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseReportID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseCriteria(c *gin.Context) (filter.Criteria, bool) {
	sel, err := filter.ParsePriority(c.Query("priority"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return filter.Criteria{}, false
	}
	return filter.Criteria{Priority: sel, Query: c.Query("q")}, true
}

func isAdmin(c *gin.Context) bool {
	id, ok := middleware.CurrentIdentity(c)
	return ok && id.Admin
}
