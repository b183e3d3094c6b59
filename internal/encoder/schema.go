package encoder

import (
	"fmt"
	"strings"

	"predictive_maintenance/internal/models"
)

// Schema is the ordered list of features the prediction service expects.
type Schema []models.FeatureDefinition

// EncodingError reports a malformed schema.
type EncodingError struct {
	Index  int
	ID     string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Index < 0 {
		return "encoding: " + e.Reason
	}
	return fmt.Sprintf("encoding: feature %d (%q): %s", e.Index, e.ID, e.Reason)
}

// DefaultSchema returns the built-in vehicle telemetry schema.
func DefaultSchema() Schema {
	return Schema{
		{ID: "engine_rpm", Label: "Engine RPM", Unit: "rpm", Default: 800, Min: 0, Max: 8000},
		{ID: "lub_oil_pressure", Label: "Lubricating oil pressure", Unit: "bar", Default: 3.3, Min: 0, Max: 10},
		{ID: "fuel_pressure", Label: "Fuel pressure", Unit: "bar", Default: 6.6, Min: 0, Max: 25},
		{ID: "coolant_pressure", Label: "Coolant pressure", Unit: "bar", Default: 2.3, Min: 0, Max: 10},
		{ID: "lub_oil_temp", Label: "Lubricating oil temperature", Unit: "°C", Default: 77.6, Min: -40, Max: 150},
		{ID: "coolant_temp", Label: "Coolant temperature", Unit: "°C", Default: 78.4, Min: -40, Max: 200},
		{ID: "battery_voltage", Label: "Battery voltage", Unit: "V", Default: 12.6, Min: 0, Max: 16},
		{ID: "vibration_level", Label: "Vibration level", Unit: "mm/s", Default: 2.5, Min: 0, Max: 50},
		{ID: "mileage_km", Label: "Mileage", Unit: "km", Default: 50000, Min: 0, Max: 1000000},
		{ID: "brake_pad_thickness", Label: "Brake pad thickness", Unit: "mm", Default: 8, Min: 0, Max: 15},
		{ID: "tire_pressure", Label: "Tyre pressure", Unit: "psi", Default: 32, Min: 0, Max: 60},
		{ID: "operating_hours", Label: "Operating hours", Unit: "h", Default: 1500, Min: 0, Max: 100000},
	}
}

// Validate checks that the schema can be used for encoding.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return &EncodingError{Index: -1, Reason: "schema has no features"}
	}
	seen := make(map[string]struct{}, len(s))
	for i, f := range s {
		id := strings.TrimSpace(f.ID)
		switch {
		case id == "":
			return &EncodingError{Index: i, ID: f.ID, Reason: "empty id"}
		case f.Min > f.Max:
			return &EncodingError{Index: i, ID: id, Reason: fmt.Sprintf("min %v greater than max %v", f.Min, f.Max)}
		case !withinRange(f.Default, f.Min, f.Max):
			return &EncodingError{Index: i, ID: id, Reason: fmt.Sprintf("default %v outside [%v, %v]", f.Default, f.Min, f.Max)}
		}
		if _, dup := seen[id]; dup {
			return &EncodingError{Index: i, ID: id, Reason: "duplicate id"}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// IDs returns feature ids in wire order.
func (s Schema) IDs() []string {
	ids := make([]string, len(s))
	for i, f := range s {
		ids[i] = f.ID
	}
	return ids
}
