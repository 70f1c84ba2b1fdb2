package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecoscan/recyclelens/internal/logger"
)

// ErrIncompleteAddress is returned when the reverse lookup succeeds but the
// address is missing a locality, state, or country. The attempt is abandoned
// rather than producing a partial place string.
var ErrIncompleteAddress = errors.New("geo: address missing locality, state, or country")

// Resolver combines a position source and a reverse geocoder into one
// best-effort lookup producing a "locality, state, country" string.
type Resolver struct {
	source   PositionSource
	geocoder ReverseGeocoder
}

// NewResolver creates a Resolver from a position source and geocoder.
func NewResolver(source PositionSource, geocoder ReverseGeocoder) *Resolver {
	return &Resolver{source: source, geocoder: geocoder}
}

// Resolve acquires the device position and reverse-geocodes it. It succeeds
// only when the locality, state, and country are all present. Callers are
// expected to log and swallow any error; nothing here should block or fail
// the rest of the application.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	pos, err := r.source.CurrentPosition(ctx)
	if err != nil {
		logger.L().Debug("position acquisition failed", "err", err)
		return "", err
	}

	rec, err := r.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		logger.L().Debug("reverse geocode failed", "lat", pos.Latitude, "lon", pos.Longitude, "err", err)
		return "", err
	}

	locality := rec.Locality()
	if locality == "" || rec.State == "" || rec.Country == "" {
		return "", ErrIncompleteAddress
	}

	place := fmt.Sprintf("%s, %s, %s", locality, rec.State, rec.Country)
	logger.L().Debug("location resolved", "place", place)
	return place, nil
}

// FixedPositionSource always reports the same coordinates. Useful for CLI
// invocations where the position is supplied by flag instead of a device.
type FixedPositionSource struct {
	Position Position
}

// CurrentPosition returns the fixed coordinates.
func (s FixedPositionSource) CurrentPosition(ctx context.Context) (Position, error) {
	return s.Position, nil
}
