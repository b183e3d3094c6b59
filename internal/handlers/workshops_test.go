package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictive_maintenance/internal/client"
	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/models"
	"predictive_maintenance/internal/service"
)

func newWorkshopRouter(ws *mockWorkshops) http.Handler {
	return newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Workshops: ws})
}

func TestWorkshops_WithCoordinates(t *testing.T) {
	ws := &mockWorkshops{centers: []models.ServiceCenter{{Name: "Auto Fix", DistanceKm: 1.2}}}
	w := doJSON(t, newWorkshopRouter(ws), http.MethodGet, "/api/v1/workshops?lat=41.3&lng=69.2&radius=3000", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Count   int                    `json:"count"`
		Centers []models.ServiceCenter `json:"centers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "Auto Fix", out.Centers[0].Name)
	assert.Equal(t, 3000, ws.lastRadius)

	pos, ok := ws.lastLoc.(geo.ReportedPosition)
	require.True(t, ok)
	assert.Equal(t, models.Coordinates{Lat: 41.3, Lng: 69.2}, *pos.Coords)
}

func TestWorkshops_DefaultLocation(t *testing.T) {
	ws := &mockWorkshops{}
	w := doJSON(t, newWorkshopRouter(ws), http.MethodGet, "/api/v1/workshops", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, ws.lastLoc)
	assert.Zero(t, ws.lastRadius)
}

func TestWorkshops_GeolocationErrors(t *testing.T) {
	cases := []struct {
		code string
		kind geo.ErrorKind
	}{
		{"1", geo.PermissionDenied},
		{"2", geo.PositionUnavailable},
		{"3", geo.Timeout},
		{"7", geo.Unknown},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			w := doJSON(t, newWorkshopRouter(&mockWorkshops{}), http.MethodGet, "/api/v1/workshops?geo_error="+tc.code, "")
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var out map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, string(tc.kind), out["kind"])
			assert.Equal(t, (&geo.GeolocationError{Kind: tc.kind}).Message(), out["error"])
		})
	}
}

func TestWorkshops_BadQuery(t *testing.T) {
	r := newWorkshopRouter(&mockWorkshops{})
	for _, q := range []string{"?lat=abc&lng=1", "?lat=1", "?radius=-5", "?radius=x", "?geo_error=denied"} {
		w := doJSON(t, r, http.MethodGet, "/api/v1/workshops"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestWorkshops_ProviderFailure(t *testing.T) {
	ws := &mockWorkshops{err: &client.NetworkError{Op: "service centers", Err: errors.New("quota exceeded")}}
	w := doJSON(t, newWorkshopRouter(ws), http.MethodGet, "/api/v1/workshops", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, errWorkshops, out["error"])
}
