package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"predictive_maintenance/internal/client"
	"predictive_maintenance/internal/models"
)

const DefaultPlacesURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// PlacesClient queries the Google Places Nearby Search API for car repair shops.
type PlacesClient struct {
	endpoint string
	apiKey   string
	http     client.HTTPClient
}

func NewPlacesClient(endpoint, apiKey string, timeout time.Duration) *PlacesClient {
	if endpoint == "" {
		endpoint = DefaultPlacesURL
	}
	return &PlacesClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type placesResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Results      []placeEntry `json:"results"`
}

type placeEntry struct {
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Geometry struct {
		Location models.Coordinates `json:"location"`
	} `json:"geometry"`
	Rating           float64 `json:"rating"`
	UserRatingsTotal int     `json:"user_ratings_total"`
	OpeningHours     *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
}

// GetServiceCenters mirrors client.Backend.GetServiceCenters so either can
// back the workshop search.
func (p *PlacesClient) GetServiceCenters(ctx context.Context, at models.Coordinates, radiusMeters int) ([]models.ServiceCenter, error) {
	const op = "places_nearby"

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(at.Lat, 'f', -1, 64)+","+strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("type", "car_repair")
	q.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &client.NetworkError{Op: op, Err: err}
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &client.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &client.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &client.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}

	var body placesResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &body); err != nil {
		return nil, &client.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	switch body.Status {
	case "OK", "ZERO_RESULTS":
	default:
		msg := body.Status
		if body.ErrorMessage != "" {
			msg += ": " + body.ErrorMessage
		}
		return nil, &client.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	out := make([]models.ServiceCenter, 0, len(body.Results))
	for _, r := range body.Results {
		c := models.ServiceCenter{
			Name:        r.Name,
			Address:     r.Vicinity,
			Location:    r.Geometry.Location,
			Rating:      r.Rating,
			ReviewCount: r.UserRatingsTotal,
			DistanceKm:  DistanceKm(at, r.Geometry.Location),
		}
		if r.OpeningHours != nil {
			c.OpenNow = r.OpeningHours.OpenNow
		}
		out = append(out, c)
	}
	return out, nil
}
