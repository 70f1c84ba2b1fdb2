// Package geo turns device coordinates into a human-readable place string.
// Position acquisition and reverse geocoding are both best-effort: every
// failure here is survivable and the caller is expected to continue with an
// empty, user-editable location.
package geo

import (
	"context"
	"errors"
)

// Sentinel errors for position acquisition. All of them are non-fatal to the
// host application.
var (
	ErrPermissionDenied    = errors.New("geo: position permission denied")
	ErrPositionUnavailable = errors.New("geo: position unavailable")
	ErrTimeout             = errors.New("geo: position request timed out")
)

// Position is a pair of WGS84 coordinates from a device location source.
type Position struct {
	Latitude  float64
	Longitude float64
}

// PositionSource provides the device's current coordinates.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// PlaceRecord is the address breakdown returned by a reverse geocoder.
// Locality-level fields are alternatives; the most specific present one wins.
type PlaceRecord struct {
	City    string `json:"city,omitempty"`
	Town    string `json:"town,omitempty"`
	Village string `json:"village,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Locality returns the city, falling back to town and then village.
func (p PlaceRecord) Locality() string {
	if p.City != "" {
		return p.City
	}
	if p.Town != "" {
		return p.Town
	}
	return p.Village
}

// ReverseGeocoder converts coordinates into a PlaceRecord.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*PlaceRecord, error)
}
