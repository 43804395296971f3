package model

import (
	"time"

	"github.com/google/uuid"
)

// RecipientAdmin addresses the shared administrator inbox.
const RecipientAdmin = "admin"

type NotificationKind string

const (
	KindSOS             NotificationKind = "sos"
	KindReportSubmitted NotificationKind = "report_submitted"
	KindReportApproved  NotificationKind = "report_approved"
	KindReportDeleted   NotificationKind = "report_deleted"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Recipient string           `json:"recipient"`
	ReportID  *uuid.UUID       `json:"reportId,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Location  *Location        `json:"location,omitempty"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// LocationSource records which attempt produced an SOS location.
type LocationSource string

const (
	SourceHighAccuracy LocationSource = "high_accuracy"
	SourceLowAccuracy  LocationSource = "low_accuracy"
	SourceNone         LocationSource = "none"
)

type SOSAlert struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"userId"`
	UserName    string         `json:"userName"`
	UserEmail   string         `json:"userEmail"`
	Location    *Location      `json:"location,omitempty"`
	Accuracy    *float64       `json:"accuracy,omitempty"`
	Source      LocationSource `json:"source"`
	TriggeredAt time.Time      `json:"triggeredAt"`
}
