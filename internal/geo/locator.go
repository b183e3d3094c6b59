// Package geo resolves the user position and searches workshops around it.
package geo

import (
	"context"
	"math"

	"predictive_maintenance/internal/models"
)

// Locator yields the position to search around.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinates, error)
}

// ReportedPosition is what the browser handed over: either coordinates or
// a W3C geolocation error code.
type ReportedPosition struct {
	Coords  *models.Coordinates
	ErrCode int
}

func (p ReportedPosition) Locate(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, &GeolocationError{Kind: Timeout}
	}
	if p.ErrCode != 0 {
		return models.Coordinates{}, &GeolocationError{Kind: KindFromCode(p.ErrCode)}
	}
	if p.Coords == nil || !validCoords(*p.Coords) {
		return models.Coordinates{}, &GeolocationError{Kind: PositionUnavailable}
	}
	return *p.Coords, nil
}

// FixedLocator always returns the configured depot position.
type FixedLocator struct {
	At models.Coordinates
}

func (f FixedLocator) Locate(context.Context) (models.Coordinates, error) {
	return f.At, nil
}

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance.
func DistanceKm(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func validCoords(c models.Coordinates) bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
