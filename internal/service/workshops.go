package service

import (
	"context"
	"sort"

	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/models"
)

// CenterFinder searches workshops around a position. Implemented by the
// backend client and by the Places API client.
type CenterFinder interface {
	GetServiceCenters(ctx context.Context, at models.Coordinates, radiusMeters int) ([]models.ServiceCenter, error)
}

type WorkshopService struct {
	finder        CenterFinder
	fallback      geo.Locator
	defaultRadius int
}

func NewWorkshopService(finder CenterFinder, fallback models.Coordinates, defaultRadiusM int) *WorkshopService {
	if defaultRadiusM <= 0 {
		defaultRadiusM = 5000
	}
	return &WorkshopService{
		finder:        finder,
		fallback:      geo.FixedLocator{At: fallback},
		defaultRadius: defaultRadiusM,
	}
}

// Nearby locates the user and returns workshops sorted by distance. A nil
// locator uses the configured depot position. Locate failures come back
// as *geo.GeolocationError; search failures as *client.NetworkError.
func (s *WorkshopService) Nearby(ctx context.Context, locator geo.Locator, radiusM int) ([]models.ServiceCenter, error) {
	if locator == nil {
		locator = s.fallback
	}
	if radiusM <= 0 {
		radiusM = s.defaultRadius
	}

	at, err := locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	centers, err := s.finder.GetServiceCenters(ctx, at, radiusM)
	if err != nil {
		return nil, err
	}
	for i := range centers {
		if centers[i].DistanceKm <= 0 {
			centers[i].DistanceKm = geo.DistanceKm(at, centers[i].Location)
		}
	}
	sort.SliceStable(centers, func(i, j int) bool {
		return centers[i].DistanceKm < centers[j].DistanceKm
	})
	return centers, nil
}
