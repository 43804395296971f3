// Package geo holds the municipal bounding box, the barangay catalogue and a
// best-effort reverse geocoder.
package geo

import (
	"errors"

	"mountain-sentinel/internal/model"
)

var (
	ErrLocationMissing = errors.New("location is required")
	ErrOutOfBounds     = errors.New("location is outside the municipal bounds")
)

type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// MunicipalBounds is the Baguio City box. Edges are inclusive.
var MunicipalBounds = Bounds{South: 16.35, West: 120.52, North: 16.48, East: 120.66}

var DefaultCenter = model.Location{Lat: 16.4167, Lng: 120.5933}

func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// ValidateLocation is shared by every path that accepts coordinates.
func ValidateLocation(loc *model.Location) error {
	if loc == nil {
		return ErrLocationMissing
	}
	if !MunicipalBounds.Contains(loc.Lat, loc.Lng) {
		return ErrOutOfBounds
	}
	return nil
}

func InBounds(loc *model.Location) bool {
	return ValidateLocation(loc) == nil
}

// BoundsOf returns the smallest box holding every point. ok is false for an
// empty slice.
func BoundsOf(points []model.Location) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b = Bounds{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		if p.Lat < b.South {
			b.South = p.Lat
		}
		if p.Lat > b.North {
			b.North = p.Lat
		}
		if p.Lng < b.West {
			b.West = p.Lng
		}
		if p.Lng > b.East {
			b.East = p.Lng
		}
	}
	return b, true
}
