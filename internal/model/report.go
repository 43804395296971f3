package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusApproved ReportStatus = "approved"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// AdminReporterID marks reports written by an administrator.
const AdminReporterID = "ADMIN"

const (
	DefaultCity              = "Baguio City"
	DefaultAdminReporterName = "Police Admin"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Report struct {
	ID               uuid.UUID    `json:"id"`
	Status           ReportStatus `json:"status"`
	Priority         Priority     `json:"priority"`
	Description      string       `json:"description"`
	Street           string       `json:"street"`
	Barangay         string       `json:"barangay"`
	City             string       `json:"city"`
	Landmark         *string      `json:"landmark,omitempty"`
	ReporterID       string       `json:"reporterId"`
	ReporterName     string       `json:"reporterName"`
	ReporterEmail    string       `json:"reporterEmail"`
	Location         *Location    `json:"location,omitempty"`
	LocationAccuracy *float64     `json:"locationAccuracy,omitempty"`
	ImageURL         *string      `json:"imageUrl,omitempty"`
	IDImageURL       *string      `json:"idImageUrl,omitempty"`
	IsAdminReport    bool         `json:"isAdminReport"`
	Timestamp        *time.Time   `json:"timestamp,omitempty"` // declared by the client
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Request/Response DTOs

// SubmitReportRequest is the body of both submission paths. Reporter
// identity is overwritten from the authenticated caller.
type SubmitReportRequest struct {
	ReporterID       string     `json:"reporterId"`
	ReporterName     string     `json:"reporterName"`
	ReporterEmail    string     `json:"reporterEmail"`
	Description      string     `json:"description" validate:"required"`
	Street           string     `json:"street" validate:"required"`
	Barangay         string     `json:"barangay" validate:"required"`
	Landmark         *string    `json:"landmark,omitempty"`
	City             string     `json:"city"`
	Priority         Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Location         *Location  `json:"location" validate:"required"`
	LocationAccuracy *float64   `json:"locationAccuracy,omitempty" validate:"omitempty,gte=0"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
	ImageURL         *string    `json:"imageUrl,omitempty"`
	IDImageURL       *string    `json:"idImageUrl,omitempty"`
	IsAdminReport    bool       `json:"isAdminReport,omitempty"`
}

// UpdateReportRequest lists every field an admin may edit. It deliberately
// has no id, status or createdAt.
type UpdateReportRequest struct {
	ReporterID   *string `json:"reporterId"`
	ReporterName *string `json:"reporterName"`
	Description  *string `json:"description"`
	Street       *string `json:"street"`
	Barangay     *string `json:"barangay"`
	ImageURL     *string `json:"imageUrl"`
}

func (u *UpdateReportRequest) Empty() bool {
	return u.ReporterID == nil && u.ReporterName == nil && u.Description == nil &&
		u.Street == nil && u.Barangay == nil && u.ImageURL == nil
}

// Apply merges the set fields into r.
func (u *UpdateReportRequest) Apply(r *Report) {
	if u.ReporterID != nil {
		r.ReporterID = *u.ReporterID
	}
	if u.ReporterName != nil {
		r.ReporterName = *u.ReporterName
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Street != nil {
		r.Street = *u.Street
	}
	if u.Barangay != nil {
		r.Barangay = *u.Barangay
	}
	if u.ImageURL != nil {
		r.ImageURL = u.ImageURL
	}
}

type ReportListResponse struct {
	Reports []Report `json:"reports"`
	Total   int      `json:"total"`
}

type DashboardResponse struct {
	CitizenReports []Report `json:"citizenReports"`
	AdminAlerts    []Report `json:"adminAlerts"`
}
