// Package workflow holds the report approval rules. It performs no I/O.
package workflow

import (
	"errors"
	"fmt"

	"mountain-sentinel/internal/model"
)

var ErrInvalidStatus = errors.New("invalid report status transition")

// InitialStatus is approved for administrator-authored reports and pending
// for everything else.
func InitialStatus(isAdmin bool) model.ReportStatus {
	if isAdmin {
		return model.StatusApproved
	}
	return model.StatusPending
}

// Approve returns the status after approval. Approving an approved report
// is a no-op.
func Approve(current model.ReportStatus) (model.ReportStatus, error) {
	if !CanTransition(current, model.StatusApproved) {
		return current, fmt.Errorf("%w: %q", ErrInvalidStatus, current)
	}
	return model.StatusApproved, nil
}

func CanTransition(from, to model.ReportStatus) bool {
	switch {
	case from == to:
		return from == model.StatusPending || from == model.StatusApproved
	case from == model.StatusPending && to == model.StatusApproved:
		return true
	default:
		return false
	}
}

func IsPublic(r *model.Report) bool {
	return r.Status == model.StatusApproved
}

func IsAdminAuthored(r *model.Report) bool {
	return r.IsAdminReport || r.ReporterID == model.AdminReporterID
}

// SplitDashboard separates approved citizen reports from approved admin
// alerts. Unapproved reports are dropped. Order is preserved.
func SplitDashboard(reports []model.Report) (citizen, alerts []model.Report) {
	citizen = []model.Report{}
	alerts = []model.Report{}
	for i := range reports {
		r := &reports[i]
		if !IsPublic(r) {
			continue
		}
		if IsAdminAuthored(r) {
			alerts = append(alerts, *r)
		} else {
			citizen = append(citizen, *r)
		}
	}
	return citizen, alerts
}
