package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/repository"
	"mountain-sentinel/internal/workflow"

	"github.com/google/uuid"
)

// ReportStore is the persistence the service needs. Every mutation must be
// durable before it returns.
type ReportStore interface {
	Create(ctx context.Context, report *model.Report) error
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateReportRequest) (*model.Report, error)
	Approve(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindAll(ctx context.Context) ([]model.Report, error)
	FindByStatus(ctx context.Context, status model.ReportStatus) ([]model.Report, error)
}

// AddressResolver suggests an address for coordinates. ok is false when
// nothing could be resolved.
type AddressResolver interface {
	Reverse(ctx context.Context, lat, lng float64) (geo.Address, bool)
}

// ChangeNotifier is told after every committed mutation.
type ChangeNotifier interface {
	Notify()
}

type ReportService struct {
	store    ReportStore
	geocoder AddressResolver
	changes  ChangeNotifier
	now      func() time.Time
}

// NewReportService wires the service. geocoder and changes may be nil.
func NewReportService(store ReportStore, geocoder AddressResolver, changes ChangeNotifier) *ReportService {
	return &ReportService{
		store:    store,
		geocoder: geocoder,
		changes:  changes,
		now:      time.Now,
	}
}

// Submit stores a citizen report as pending. Reports flagged isAdminReport
// are routed through SubmitAndApprove.
func (s *ReportService) Submit(ctx context.Context, req *model.SubmitReportRequest) (*model.Report, error) {
	if req.IsAdminReport {
		return s.SubmitAndApprove(ctx, req)
	}

	normalize(req, model.PriorityMedium)
	s.suggestAddress(ctx, req)
	if err := validateSubmission(req, true); err != nil {
		return nil, err
	}

	report := s.newReport(req, workflow.InitialStatus(false))
	if err := s.store.Create(ctx, report); err != nil {
		logger.Component("report_service").WithError(err).Error("create report")
		return nil, fmt.Errorf("create report: %w", err)
	}

	logger.Component("report_service").WithField("report_id", report.ID).Info("report submitted")
	s.changed()
	return report, nil
}

// SubmitAndApprove stores an administrator alert that is approved from the
// moment it exists. There is no intermediate pending state.
func (s *ReportService) SubmitAndApprove(ctx context.Context, req *model.SubmitReportRequest) (*model.Report, error) {
	req.IsAdminReport = true
	req.ReporterID = model.AdminReporterID
	if strings.TrimSpace(req.ReporterName) == "" {
		req.ReporterName = model.DefaultAdminReporterName
	}

	normalize(req, model.PriorityHigh)
	s.suggestAddress(ctx, req)
	if err := validateSubmission(req, false); err != nil {
		return nil, err
	}

	report := s.newReport(req, workflow.InitialStatus(true))
	if err := s.store.Create(ctx, report); err != nil {
		logger.Component("report_service").WithError(err).Error("create admin report")
		return nil, fmt.Errorf("create admin report: %w", err)
	}

	logger.Component("report_service").WithField("report_id", report.ID).Info("admin report published")
	s.changed()
	return report, nil
}

func (s *ReportService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateReportRequest) (*model.Report, error) {
	trimPtr(req.ReporterID)
	trimPtr(req.ReporterName)
	trimPtr(req.Description)
	trimPtr(req.Street)
	trimPtr(req.Barangay)
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *current
	req.Apply(&merged)
	if sameContent(current, &merged) {
		return current, nil
	}

	report, err := s.store.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	logger.Component("report_service").WithField("report_id", id).Info("report updated")
	s.changed()
	return report, nil
}

// Approve publishes a pending report. Approving an approved report returns
// it unchanged.
func (s *ReportService) Approve(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.Approve(current.Status); err != nil {
		return nil, err
	}

	changed, err := s.store.Approve(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Already approved, possibly by a concurrent request since the read above.
		return s.store.FindByID(ctx, id)
	}

	logger.Component("report_service").WithField("report_id", id).Info("report approved")
	s.changed()
	return s.store.FindByID(ctx, id)
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Component("report_service").WithField("report_id", id).Info("report deleted")
	s.changed()
	return nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ReportService) ListAll(ctx context.Context) (*model.ReportListResponse, error) {
	reports, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return listResponse(reports), nil
}

func (s *ReportService) ListPending(ctx context.Context) (*model.ReportListResponse, error) {
	reports, err := s.store.FindByStatus(ctx, model.StatusPending)
	if err != nil {
		return nil, err
	}
	return listResponse(reports), nil
}

// ListApproved returns the public feed narrowed by c.
func (s *ReportService) ListApproved(ctx context.Context, c filter.Criteria) (*model.ReportListResponse, error) {
	reports, err := s.store.FindByStatus(ctx, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	return listResponse(filter.Apply(reports, c)), nil
}

func (s *ReportService) Dashboard(ctx context.Context) (*model.DashboardResponse, error) {
	reports, err := s.store.FindByStatus(ctx, model.StatusApproved)
	if err != nil {
		return nil, err
	}
	citizen, alerts := workflow.SplitDashboard(reports)
	return &model.DashboardResponse{CitizenReports: citizen, AdminAlerts: alerts}, nil
}

func sameContent(a, b *model.Report) bool {
	if a.ReporterID != b.ReporterID || a.ReporterName != b.ReporterName ||
		a.Description != b.Description || a.Street != b.Street || a.Barangay != b.Barangay {
		return false
	}
	if a.ImageURL == nil || b.ImageURL == nil {
		return a.ImageURL == b.ImageURL
	}
	return *a.ImageURL == *b.ImageURL
}

// IsNotFound reports whether err means the report does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrReportNotFound)
}

func (s *ReportService) newReport(req *model.SubmitReportRequest, status model.ReportStatus) *model.Report {
	ts := req.Timestamp
	if ts == nil {
		now := s.now()
		ts = &now
	}
	return &model.Report{
		ID:               uuid.New(),
		Status:           status,
		Priority:         req.Priority,
		Description:      req.Description,
		Street:           req.Street,
		Barangay:         req.Barangay,
		City:             req.City,
		Landmark:         req.Landmark,
		ReporterID:       req.ReporterID,
		ReporterName:     req.ReporterName,
		ReporterEmail:    req.ReporterEmail,
		Location:         req.Location,
		LocationAccuracy: req.LocationAccuracy,
		ImageURL:         req.ImageURL,
		IDImageURL:       req.IDImageURL,
		IsAdminReport:    req.IsAdminReport,
		Timestamp:        ts,
	}
}

// suggestAddress fills a blank street or barangay from the geocoder.
func (s *ReportService) suggestAddress(ctx context.Context, req *model.SubmitReportRequest) {
	if s.geocoder == nil || req.Location == nil || !geo.InBounds(req.Location) {
		return
	}
	if req.Street != "" && req.Barangay != "" {
		return
	}
	addr, ok := s.geocoder.Reverse(ctx, req.Location.Lat, req.Location.Lng)
	if !ok {
		return
	}
	if req.Street == "" {
		req.Street = addr.Street
	}
	if req.Barangay == "" {
		req.Barangay = addr.Barangay
	}
}

func (s *ReportService) changed() {
	if s.changes != nil {
		s.changes.Notify()
	}
}

func normalize(req *model.SubmitReportRequest, defaultPriority model.Priority) {
	req.Description = strings.TrimSpace(req.Description)
	req.Street = strings.TrimSpace(req.Street)
	req.Barangay = strings.TrimSpace(req.Barangay)
	req.City = strings.TrimSpace(req.City)
	req.ReporterName = strings.TrimSpace(req.ReporterName)
	req.ReporterEmail = strings.TrimSpace(req.ReporterEmail)
	trimPtr(req.Landmark)
	if req.Landmark != nil && *req.Landmark == "" {
		req.Landmark = nil
	}
	if req.City == "" {
		req.City = model.DefaultCity
	}
	req.Priority = model.Priority(strings.ToLower(strings.TrimSpace(string(req.Priority))))
	if req.Priority == "" {
		req.Priority = defaultPriority
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func listResponse(reports []model.Report) *model.ReportListResponse {
	if reports == nil {
		reports = []model.Report{}
	}
	return &model.ReportListResponse{Reports: reports, Total: len(reports)}
}
