package models

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ServiceCenter is a workshop returned by the places search.
type ServiceCenter struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Location    Coordinates `json:"location"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	OpenNow     *bool       `json:"open_now,omitempty"`
	DistanceKm  float64     `json:"distance_km"`
}
