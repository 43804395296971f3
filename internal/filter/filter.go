// Package filter narrows report lists by priority and free-text search.
// Every function preserves order and leaves its input untouched.
package filter

import (
	"fmt"
	"strings"

	"mountain-sentinel/internal/model"
)

type PrioritySelector string

const (
	PriorityAll    PrioritySelector = "all"
	PriorityLow    PrioritySelector = PrioritySelector(model.PriorityLow)
	PriorityMedium PrioritySelector = PrioritySelector(model.PriorityMedium)
	PriorityHigh   PrioritySelector = PrioritySelector(model.PriorityHigh)
)

// ParsePriority accepts all/low/medium/high in any case. Empty means all.
func ParsePriority(s string) (PrioritySelector, error) {
	switch sel := PrioritySelector(strings.ToLower(strings.TrimSpace(s))); sel {
	case "", PriorityAll:
		return PriorityAll, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return sel, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

type Criteria struct {
	Priority PrioritySelector
	Query    string
}

func ByPriority(reports []model.Report, sel PrioritySelector) []model.Report {
	if sel == "" || sel == PriorityAll {
		return clone(reports)
	}
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if string(r.Priority) == string(sel) {
			out = append(out, r)
		}
	}
	return out
}

// BySearch keeps reports whose description, barangay, street or reporter
// name contains q, ignoring case. A blank query keeps everything.
func BySearch(reports []model.Report, q string) []model.Report {
	if strings.TrimSpace(q) == "" {
		return clone(reports)
	}
	needle := strings.ToLower(q)
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if matches(&r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func Apply(reports []model.Report, c Criteria) []model.Report {
	return BySearch(ByPriority(reports, c.Priority), c.Query)
}

func matches(r *model.Report, needle string) bool {
	for _, field := range []string{r.Description, r.Barangay, r.Street, r.ReporterName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func clone(reports []model.Report) []model.Report {
	out := make([]model.Report, len(reports))
	copy(out, reports)
	return out
}
