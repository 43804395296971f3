package mapview

import (
	"bytes"
	"html/template"
	"time"

	"mountain-sentinel/internal/model"
)

var popupTemplate = template.Must(template.New("popup").Parse(`<div class="incident-popup" data-report-id="{{.ID}}">
  <h3 class="incident-popup__title">{{.Description}}</h3>
  <p><strong>Street:</strong> {{.Street}}</p>
  <p><strong>Barangay:</strong> {{.Barangay}}, {{.City}}</p>
  <p><strong>Status:</strong> {{.Status}}</p>
  <p><strong>Priority:</strong> <span style="color: {{.Color}}">{{.Priority}}</span></p>
  {{- if .ReporterName}}
  <p><strong>Reported by:</strong> {{.ReporterName}}</p>
  {{- end}}
  <p><strong>Reported:</strong> {{.Reported}}</p>
  <button type="button" onclick="window.dispatchEvent(new CustomEvent('viewIncidentDetail', { detail: {{.ID}} }))">View Full Report Details</button>
</div>`))

type popupData struct {
	ID           string
	Description  string
	Street       string
	Barangay     string
	City         string
	Status       string
	Priority     string
	Color        template.CSS
	ReporterName string
	Reported     string
}

// RenderPopup renders the marker popup for r. All report text is escaped.
func RenderPopup(r *model.Report) (template.HTML, error) {
	city := r.City
	if city == "" {
		city = "Baguio"
	}
	reported := r.CreatedAt
	if r.Timestamp != nil {
		reported = *r.Timestamp
	}

	var buf bytes.Buffer
	err := popupTemplate.Execute(&buf, popupData{
		ID:           r.ID.String(),
		Description:  r.Description,
		Street:       r.Street,
		Barangay:     r.Barangay,
		City:         city,
		Status:       string(r.Status),
		Priority:     string(r.Priority),
		Color:        template.CSS(PriorityColor(r.Priority)),
		ReporterName: r.ReporterName,
		Reported:     reported.Local().Format(time.RFC1123),
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
