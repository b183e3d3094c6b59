package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/models"

	"github.com/gin-gonic/gin"
)

const errWorkshops = "failed to load service centers"

// locatorFromQuery builds the position source for a workshop search. The
// browser forwards either its coordinates or the geolocation error code.
// Neither yields nil, which means the configured default location.
func locatorFromQuery(c *gin.Context) (geo.Locator, error) {
	if code := c.Query("geo_error"); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			return nil, errors.New("invalid 'geo_error'; expected 1, 2 or 3")
		}
		return geo.ReportedPosition{ErrCode: n}, nil
	}
	latS, lngS := c.Query("lat"), c.Query("lng")
	if latS == "" && lngS == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return nil, errors.New("invalid 'lat'")
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil {
		return nil, errors.New("invalid 'lng'")
	}
	return geo.ReportedPosition{Coords: &models.Coordinates{Lat: lat, Lng: lng}}, nil
}

// @Summary      Nearby service centers
// @Description  Sorted by distance. Without lat/lng the configured default location is used.
// @Tags         workshops
// @Produce      json
// @Param        lat        query  number  false  "Latitude"
// @Param        lng        query  number  false  "Longitude"
// @Param        radius     query  int     false  "Search radius in meters"
// @Param        geo_error  query  int     false  "Browser geolocation error code"  Enums(1,2,3)
// @Success      200  {object}  map[string]interface{}  "count, centers"
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string  "error, kind"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/workshops [get]
// @Security     BearerAuth
func (h *Handler) getWorkshops(c *gin.Context) {
	locator, err := locatorFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	radius := 0
	if rs := c.Query("radius"); rs != "" {
		if radius, err = strconv.Atoi(rs); err != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'radius'"})
			return
		}
	}

	centers, err := h.services.Workshops.Nearby(c.Request.Context(), locator, radius)
	if err != nil {
		var geoErr *geo.GeolocationError
		if errors.As(err, &geoErr) {
			if h.log != nil {
				h.log.Infow("workshops_geolocation_failed", "kind", geoErr.Kind)
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": geoErr.Message(), "kind": geoErr.Kind})
			return
		}
		h.logAndJSONError(c, statusFor(err), errWorkshops, "workshops_search_failed", err, "radius", radius)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(centers),
		"centers": centers,
	})
}
