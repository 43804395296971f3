package handler

import (
	"mountain-sentinel/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Report       *ReportHandler
	Map          *MapHandler
	Geo          *GeoHandler
	SOS          *SOSHandler
	Notification *NotificationHandler
}

type RouterConfig struct {
	JWTSecret           string
	TrustGatewayHeaders bool
	Logger              *logrus.Logger
}

func SetupRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	r.Use(gin.Recovery())
	r.Use(middleware.Authenticate(cfg.JWTSecret, cfg.TrustGatewayHeaders))

	// Health check
	r.GET("/health", h.Report.Health)

	// Public endpoints
	r.GET("/reports/approved", h.Report.GetApprovedReports)
	r.GET("/reports/dashboard", h.Report.GetDashboard)
	r.GET("/reports/stream", h.Report.StreamReports)
	r.GET("/reports/:id", h.Report.GetReportByID)
	r.GET("/map", h.Map.GetLayer)
	r.GET("/map/stream", h.Map.StreamLayer)
	r.GET("/geocode/reverse", h.Geo.Reverse)
	r.GET("/barangays", h.Geo.ListBarangays)

	// Signed-in citizens
	user := r.Group("", middleware.RequireUser())
	{
		user.POST("/reports", h.Report.SubmitReport)

		user.POST("/sos", h.SOS.Trigger)
		user.POST("/sos/:id/location", h.SOS.PostLocation)
		user.GET("/sos/:id/stream", h.SOS.Stream)
		user.DELETE("/sos/:id", h.SOS.Cancel)

		notifications := user.Group("/notifications")
		{
			notifications.GET("", h.Notification.GetNotifications)
			notifications.GET("/stream", h.Notification.StreamNotifications)
			notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
			notifications.PATCH("/read-all", h.Notification.MarkAllAsRead)
		}
	}

	admin := r.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/reports", h.Report.GetReports)
		admin.POST("/reports", h.Report.SubmitAdminReport)
		admin.PUT("/reports/:id", h.Report.UpdateReport)
		admin.PATCH("/reports/:id/approve", h.Report.ApproveReport)
		admin.DELETE("/reports/:id", h.Report.DeleteReport)
		admin.GET("/outbox/stats", h.Report.GetOutboxStats)
	}

	return r
}
