package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	reports []model.Report
	fail    error
}

func (m *memoryStore) Create(ctx context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.reports = append([]model.Report{*r}, m.reports...)
	return nil
}

func (m *memoryStore) Update(ctx context.Context, id uuid.UUID, req *model.UpdateReportRequest) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].ID == id {
			req.Apply(&m.reports[i])
			r := m.reports[i]
			return &r, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memoryStore) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].ID == id {
			if m.reports[i].Status == model.StatusApproved {
				return false, nil
			}
			m.reports[i].Status = model.StatusApproved
			return true, nil
		}
	}
	return false, repository.ErrReportNotFound
}

func (m *memoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].ID == id {
			m.reports = append(m.reports[:i], m.reports[i+1:]...)
			return nil
		}
	}
	return repository.ErrReportNotFound
}

func (m *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrReportNotFound
}

func (m *memoryStore) FindAll(ctx context.Context) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Report(nil), m.reports...), nil
}

func (m *memoryStore) FindByStatus(ctx context.Context, status model.ReportStatus) ([]model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Report
	for _, r := range m.reports {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify() { c.n++ }

type stubGeocoder struct {
	addr  geo.Address
	ok    bool
	calls int
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lng float64) (geo.Address, bool) {
	s.calls++
	return s.addr, s.ok
}

func inside() *model.Location { return &model.Location{Lat: 16.4120, Lng: 120.5960} }

func citizenRequest() *model.SubmitReportRequest {
	return &model.SubmitReportRequest{
		ReporterID:    "user-1",
		ReporterName:  "Juan Dela Cruz",
		ReporterEmail: "juan@example.com",
		Description:   "  Fallen tree blocking the road  ",
		Street:        "Session Road",
		Barangay:      "Session Road Area",
		Location:      inside(),
	}
}

func newTestService() (*ReportService, *memoryStore, *countingNotifier) {
	store := &memoryStore{}
	changes := &countingNotifier{}
	return NewReportService(store, nil, changes), store, changes
}

func TestSubmit_CitizenReportIsPending(t *testing.T) {
	svc, store, changes := newTestService()

	report, err := svc.Submit(context.Background(), citizenRequest())
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, report.Status)
	assert.Equal(t, model.PriorityMedium, report.Priority)
	assert.Equal(t, model.DefaultCity, report.City)
	assert.Equal(t, "Fallen tree blocking the road", report.Description)
	assert.False(t, report.IsAdminReport)
	assert.NotNil(t, report.Timestamp)
	assert.Len(t, store.reports, 1)
	assert.Equal(t, 1, changes.n)
}

func TestSubmit_RequiredFields(t *testing.T) {
	svc, store, changes := newTestService()

	_, err := svc.Submit(context.Background(), &model.SubmitReportRequest{
		ReporterName:  "Juan",
		ReporterEmail: "juan@example.com",
		Description:   "   ",
	})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgDescriptionRequired, verr.Fields["description"])
	assert.Equal(t, MsgStreetRequired, verr.Fields["street"])
	assert.Equal(t, MsgBarangayRequired, verr.Fields["barangay"])
	assert.Equal(t, MsgLocationRequired, verr.Fields["location"])
	assert.Empty(t, store.reports)
	assert.Zero(t, changes.n)
}

func TestSubmit_RejectsLocationOutsideCity(t *testing.T) {
	svc, store, _ := newTestService()
	req := citizenRequest()
	req.Location = &model.Location{Lat: 14.5995, Lng: 120.9842}

	_, err := svc.Submit(context.Background(), req)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgLocationOutside, verr.Fields["location"])
	assert.Empty(t, store.reports)
}

func TestSubmit_CitizenNeedsValidEmail(t *testing.T) {
	svc, _, _ := newTestService()
	req := citizenRequest()
	req.ReporterEmail = "not-an-email"
	req.ReporterName = ""

	_, err := svc.Submit(context.Background(), req)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgEmailInvalid, verr.Fields["reporterEmail"])
	assert.Equal(t, MsgNameRequired, verr.Fields["reporterName"])
}

func TestSubmit_RejectsUnknownPriority(t *testing.T) {
	svc, _, _ := newTestService()
	req := citizenRequest()
	req.Priority = "urgent"

	_, err := svc.Submit(context.Background(), req)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgPriorityInvalid, verr.Fields["priority"])
}

func TestSubmit_AdminFlagPublishesImmediately(t *testing.T) {
	svc, _, changes := newTestService()
	req := citizenRequest()
	req.IsAdminReport = true

	report, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, report.Status)
	assert.Equal(t, model.AdminReporterID, report.ReporterID)
	assert.True(t, report.IsAdminReport)
	assert.Equal(t, 1, changes.n)
}

func TestSubmitAndApprove_Defaults(t *testing.T) {
	svc, store, _ := newTestService()

	report, err := svc.SubmitAndApprove(context.Background(), &model.SubmitReportRequest{
		Description: "Landslide on Kennon Road",
		Street:      "Kennon Road",
		Barangay:    "Camp 7",
		Location:    inside(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, report.Status)
	assert.Equal(t, model.PriorityHigh, report.Priority)
	assert.Equal(t, model.AdminReporterID, report.ReporterID)
	assert.Equal(t, model.DefaultAdminReporterName, report.ReporterName)
	require.Len(t, store.reports, 1)
	assert.Equal(t, model.StatusApproved, store.reports[0].Status)
}

func TestSubmit_GeocoderFillsBlankAddress(t *testing.T) {
	store := &memoryStore{}
	gc := &stubGeocoder{addr: geo.Address{Street: "Abanao Street", Barangay: "Abanao-Zandueta-Kayong-Chugum-Otek"}, ok: true}
	svc := NewReportService(store, gc, nil)

	req := citizenRequest()
	req.Street = ""
	req.Barangay = "Session Road Area"

	report, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Abanao Street", report.Street)
	assert.Equal(t, "Session Road Area", report.Barangay)
	assert.Equal(t, 1, gc.calls)
}

func TestSubmit_GeocoderNotCalledWhenAddressComplete(t *testing.T) {
	gc := &stubGeocoder{ok: true}
	svc := NewReportService(&memoryStore{}, gc, nil)

	_, err := svc.Submit(context.Background(), citizenRequest())
	require.NoError(t, err)
	assert.Zero(t, gc.calls)
}

func TestSubmit_StoreFailure(t *testing.T) {
	svc, store, changes := newTestService()
	store.fail = errors.New("connection refused")

	_, err := svc.Submit(context.Background(), citizenRequest())
	require.Error(t, err)
	assert.Zero(t, changes.n)
}

func TestApprove(t *testing.T) {
	svc, _, changes := newTestService()
	ctx := context.Background()

	report, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.Equal(t, 2, changes.n)

	again, err := svc.Approve(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, again.Status)
	assert.Equal(t, 2, changes.n, "approving twice must not announce a change")
}

// lostRaceStore approves the report on behalf of another request just
// before its own Approve runs.
type lostRaceStore struct{ *memoryStore }

func (s lostRaceStore) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.memoryStore.Approve(ctx, id); err != nil {
		return false, err
	}
	return s.memoryStore.Approve(ctx, id)
}

func TestApprove_ConcurrentWinnerReturnsApproved(t *testing.T) {
	store := &memoryStore{}
	changes := &countingNotifier{}
	svc := NewReportService(lostRaceStore{store}, nil, changes)
	ctx := context.Background()

	report, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	got, err := svc.Approve(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, 1, changes.n)
}

func TestApprove_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Approve(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestUpdate(t *testing.T) {
	svc, _, changes := newTestService()
	ctx := context.Background()

	report, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	desc := "  Tree cleared, one lane open  "
	updated, err := svc.Update(ctx, report.ID, &model.UpdateReportRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Tree cleared, one lane open", updated.Description)
	assert.Equal(t, model.StatusPending, updated.Status)
	assert.Equal(t, 2, changes.n)
}

func TestUpdate_UnchangedFieldsAnnounceNothing(t *testing.T) {
	svc, _, changes := newTestService()
	ctx := context.Background()

	report, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	same := report.Description
	got, err := svc.Update(ctx, report.ID, &model.UpdateReportRequest{Description: &same})
	require.NoError(t, err)
	assert.Equal(t, report.Description, got.Description)
	assert.Equal(t, 1, changes.n)

	_, err = svc.Update(ctx, uuid.New(), &model.UpdateReportRequest{Description: &same})
	assert.True(t, IsNotFound(err))
}

func TestUpdate_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Update(ctx, uuid.New(), &model.UpdateReportRequest{})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgNoChanges, verr.Fields["update"])

	blank := "   "
	_, err = svc.Update(ctx, uuid.New(), &model.UpdateReportRequest{Street: &blank})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgStreetRequired, verr.Fields["street"])
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	report, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, report.ID))
	assert.Empty(t, store.reports)
	assert.True(t, IsNotFound(svc.Delete(ctx, report.ID)))
}

func TestListsAndDashboard(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	pending, err := svc.Submit(ctx, citizenRequest())
	require.NoError(t, err)

	approvedReq := citizenRequest()
	approvedReq.Priority = model.PriorityLow
	approvedReq.Description = "Pothole near the market"
	citizen, err := svc.Submit(ctx, approvedReq)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, citizen.ID)
	require.NoError(t, err)

	alertReq := citizenRequest()
	alertReq.Description = "Road closed for clearing"
	alert, err := svc.SubmitAndApprove(ctx, alertReq)
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	pendingList, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pendingList.Total)
	assert.Equal(t, pending.ID, pendingList.Reports[0].ID)

	approved, err := svc.ListApproved(ctx, filter.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, approved.Total)

	low, err := svc.ListApproved(ctx, filter.Criteria{Priority: filter.PriorityLow, Query: "POTHOLE"})
	require.NoError(t, err)
	require.Equal(t, 1, low.Total)
	assert.Equal(t, citizen.ID, low.Reports[0].ID)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, dash.CitizenReports, 1)
	require.Len(t, dash.AdminAlerts, 1)
	assert.Equal(t, citizen.ID, dash.CitizenReports[0].ID)
	assert.Equal(t, alert.ID, dash.AdminAlerts[0].ID)
}

func TestListPending_EmptyIsNotNil(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp.Reports)
	assert.Zero(t, resp.Total)
}
