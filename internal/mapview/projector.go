// Package mapview projects approved reports onto a map marker layer.
package mapview

import (
	"html/template"
	"sync"

	"mountain-sentinel/internal/filter"
	"mountain-sentinel/internal/geo"
	"mountain-sentinel/internal/logger"
	"mountain-sentinel/internal/model"
	"mountain-sentinel/internal/workflow"

	"github.com/google/uuid"
)

const (
	ColorHigh    = "#dc3545"
	ColorMedium  = "#ffc107"
	ColorLow     = "#28a745"
	ColorDefault = "#6c757d"

	FitPadding = 80
	FitMaxZoom = 16
)

func PriorityColor(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return ColorHigh
	case model.PriorityMedium:
		return ColorMedium
	case model.PriorityLow:
		return ColorLow
	default:
		return ColorDefault
	}
}

type Marker struct {
	ReportID uuid.UUID      `json:"reportId"`
	Lat      float64        `json:"lat"`
	Lng      float64        `json:"lng"`
	Priority model.Priority `json:"priority"`
	Color    string         `json:"color"`
	Popup    template.HTML  `json:"popup"`
}

// Viewport is what the client passes to fitBounds. Default is set when no
// marker is visible; Bounds is then the municipal box and Center the city
// center.
type Viewport struct {
	Center  *model.Location `json:"center,omitempty"`
	Bounds  geo.Bounds      `json:"bounds"`
	Padding int             `json:"padding"`
	MaxZoom int             `json:"maxZoom,omitempty"`
	Default bool            `json:"default"`
}

type Layer struct {
	Filter   filter.PrioritySelector `json:"filter"`
	Markers  []Marker                `json:"markers"`
	Viewport Viewport                `json:"viewport"`
}

func defaultViewport() Viewport {
	center := geo.DefaultCenter
	return Viewport{Center: &center, Bounds: geo.MunicipalBounds, Default: true}
}

// Clear drops every marker and resets the viewport.
func (l *Layer) Clear() {
	l.Markers = []Marker{}
	l.Viewport = defaultViewport()
}

// Rebuild clears the layer and repopulates it from reports. Only approved
// reports with an in-bounds location are placed.
func (l *Layer) Rebuild(reports []model.Report, sel filter.PrioritySelector) {
	l.Clear()
	l.Filter = sel

	var points []model.Location
	for _, r := range filter.ByPriority(visible(reports), sel) {
		popup, err := RenderPopup(&r)
		if err != nil {
			logger.Component("mapview").WithError(err).WithField("report_id", r.ID).Warn("render popup")
			continue
		}
		l.Markers = append(l.Markers, Marker{
			ReportID: r.ID,
			Lat:      r.Location.Lat,
			Lng:      r.Location.Lng,
			Priority: r.Priority,
			Color:    PriorityColor(r.Priority),
			Popup:    popup,
		})
		points = append(points, *r.Location)
	}

	if b, ok := geo.BoundsOf(points); ok {
		l.Viewport = Viewport{Bounds: b, Padding: FitPadding, MaxZoom: FitMaxZoom}
	}
}

// Project builds a fresh layer for reports under sel.
func Project(reports []model.Report, sel filter.PrioritySelector) Layer {
	var l Layer
	l.Rebuild(reports, sel)
	return l
}

func visible(reports []model.Report) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for i := range reports {
		if workflow.IsPublic(&reports[i]) && geo.InBounds(reports[i].Location) {
			out = append(out, reports[i])
		}
	}
	return out
}

// Projector keeps the last snapshot and selector so that either can change
// and the layer is rebuilt from the other.
type Projector struct {
	mu       sync.Mutex
	snapshot []model.Report
	sel      filter.PrioritySelector
	layer    Layer
}

func NewProjector(sel filter.PrioritySelector) *Projector {
	p := &Projector{sel: sel}
	p.layer.Rebuild(nil, sel)
	return p
}

func (p *Projector) SetSnapshot(reports []model.Report) Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = reports
	p.layer.Rebuild(p.snapshot, p.sel)
	return p.layer
}

func (p *Projector) setFilter(sel filter.PrioritySelector) Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sel = sel
	p.layer.Rebuild(p.snapshot, p.sel)
	return p.layer
}

func (p *Projector) current() Layer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layer
}
