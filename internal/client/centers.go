package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"predictive_maintenance/internal/models"
)

type centerDTO struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"user_ratings_total"`
	OpenNow     *bool   `json:"open_now"`
	DistanceKm  float64 `json:"distance"`
}

type centersResponse struct {
	Centers []centerDTO `json:"centers"`
}

// GetServiceCenters searches workshops around a position.
func (b *Backend) GetServiceCenters(ctx context.Context, at models.Coordinates, radiusMeters int) ([]models.ServiceCenter, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))

	var resp centersResponse
	if err := b.call(ctx, "service_centers", http.MethodGet, "/service-centers", q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.ServiceCenter, 0, len(resp.Centers))
	for _, c := range resp.Centers {
		out = append(out, models.ServiceCenter{
			Name:        c.Name,
			Address:     c.Address,
			Location:    models.Coordinates{Lat: c.Lat, Lng: c.Lng},
			Rating:      c.Rating,
			ReviewCount: c.ReviewCount,
			OpenNow:     c.OpenNow,
			DistanceKm:  c.DistanceKm,
		})
	}
	return out, nil
}
