package model

// Routing keys on the event exchange. Outbox rows carry one of these.
const (
	RoutingKeySOSTriggered    = "sos.triggered"
	RoutingKeyReportSubmitted = "report.submitted"
	RoutingKeyReportApproved  = "report.approved"
	RoutingKeyReportDeleted   = "report.deleted"
)

type SOSTriggeredMessage struct {
	AlertID   string    `json:"alert_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Location  *Location `json:"location,omitempty"`
	Source    string    `json:"source"`
	Timestamp int64     `json:"timestamp"`
}

type ReportEventMessage struct {
	ReportID      string `json:"report_id"`
	Description   string `json:"description"`
	Barangay      string `json:"barangay"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
	ReporterID    string `json:"reporter_id,omitempty"`
	ReporterName  string `json:"reporter_name,omitempty"`
	IsAdminReport bool   `json:"is_admin_report"`
	Timestamp     int64  `json:"timestamp"`
}

func NewReportEvent(r *Report, ts int64) ReportEventMessage {
	return ReportEventMessage{
		ReportID:      r.ID.String(),
		Description:   r.Description,
		Barangay:      r.Barangay,
		Priority:      string(r.Priority),
		Status:        string(r.Status),
		ReporterID:    r.ReporterID,
		ReporterName:  r.ReporterName,
		IsAdminReport: r.IsAdminReport,
		Timestamp:     ts,
	}
}
