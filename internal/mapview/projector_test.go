package mapview

import (
	"strings"
	"testing"
	"time"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(desc string, p model.Priority, s model.ReportStatus, loc *model.Location) model.Report {
	return model.Report{
		ID:          uuid.New(),
		Description: desc,
		Street:      "Session Road",
		Barangay:    "Session Road Area",
		City:        model.DefaultCity,
		Priority:    p,
		Status:      s,
		Location:    loc,
		CreatedAt:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestProjectKeepsApprovedInBounds(t *testing.T) {
	reports := []model.Report{
		report("flood", model.PriorityHigh, model.StatusApproved, &model.Location{Lat: 16.41, Lng: 120.59}),
		report("pending", model.PriorityHigh, model.StatusPending, &model.Location{Lat: 16.41, Lng: 120.59}),
		report("no location", model.PriorityHigh, model.StatusApproved, nil),
		report("manila", model.PriorityHigh, model.StatusApproved, &model.Location{Lat: 14.6, Lng: 120.98}),
		report("pothole", model.PriorityLow, model.StatusApproved, &model.Location{Lat: 16.39, Lng: 120.61}),
	}

	layer := Project(reports, filter.PriorityAll)
	require.Len(t, layer.Markers, 2)
	assert.Equal(t, reports[0].ID, layer.Markers[0].ReportID)
	assert.Equal(t, ColorHigh, layer.Markers[0].Color)
	assert.Equal(t, reports[4].ID, layer.Markers[1].ReportID)
	assert.Equal(t, ColorLow, layer.Markers[1].Color)

	assert.False(t, layer.Viewport.Default)
	assert.Nil(t, layer.Viewport.Center)
	assert.Equal(t, FitPadding, layer.Viewport.Padding)
	assert.Equal(t, FitMaxZoom, layer.Viewport.MaxZoom)
	assert.Equal(t, geo.Bounds{South: 16.39, West: 120.59, North: 16.41, East: 120.61}, layer.Viewport.Bounds)
}

func TestOutOfBoundsExcludedUnderEveryFilter(t *testing.T) {
	outside := report("outside", model.PriorityMedium, model.StatusApproved, &model.Location{Lat: 17.0, Lng: 121.0})
	for _, sel := range []filter.PrioritySelector{filter.PriorityAll, filter.PriorityLow, filter.PriorityMedium, filter.PriorityHigh} {
		layer := Project([]model.Report{outside}, sel)
		assert.Empty(t, layer.Markers, sel)
		assert.True(t, layer.Viewport.Default, sel)
		assert.Equal(t, geo.MunicipalBounds, layer.Viewport.Bounds, sel)
		require.NotNil(t, layer.Viewport.Center, sel)
		assert.Equal(t, geo.DefaultCenter, *layer.Viewport.Center, sel)
	}
}

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, "#dc3545", PriorityColor(model.PriorityHigh))
	assert.Equal(t, "#ffc107", PriorityColor(model.PriorityMedium))
	assert.Equal(t, "#28a745", PriorityColor(model.PriorityLow))
	assert.Equal(t, "#6c757d", PriorityColor(""))
}

func TestProjectorRebuildsOnFilterChange(t *testing.T) {
	p := NewProjector(filter.PriorityAll)
	assert.True(t, p.current().Viewport.Default)

	layer := p.SetSnapshot([]model.Report{
		report("flood", model.PriorityHigh, model.StatusApproved, &model.Location{Lat: 16.41, Lng: 120.59}),
		report("pothole", model.PriorityLow, model.StatusApproved, &model.Location{Lat: 16.39, Lng: 120.61}),
	})
	assert.Len(t, layer.Markers, 2)

	layer = p.setFilter(filter.PriorityHigh)
	require.Len(t, layer.Markers, 1)
	assert.Equal(t, model.PriorityHigh, layer.Markers[0].Priority)
	assert.Equal(t, filter.PriorityHigh, layer.Filter)

	layer = p.setFilter(filter.PriorityMedium)
	assert.Empty(t, layer.Markers)
	assert.True(t, layer.Viewport.Default)
}

func TestRenderPopupEscapesReportText(t *testing.T) {
	r := report(`<script>alert("x")</script>`, model.PriorityHigh, model.StatusApproved, &model.Location{Lat: 16.41, Lng: 120.59})
	r.ReporterName = "Ana Cruz"

	html, err := RenderPopup(&r)
	require.NoError(t, err)
	s := string(html)
	assert.NotContains(t, s, "<script>")
	assert.Contains(t, s, "&lt;script&gt;")
	assert.Contains(t, s, "viewIncidentDetail")
	assert.Contains(t, s, r.ID.String())
	assert.Contains(t, s, "Ana Cruz")
	assert.Contains(t, s, "Baguio City")
}

func TestRenderPopupDefaultsCity(t *testing.T) {
	r := report("landslide", model.PriorityHigh, model.StatusApproved, nil)
	r.City = ""
	html, err := RenderPopup(&r)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "Session Road Area, Baguio"))
	assert.NotContains(t, string(html), "Reported by")
}
