package encoder

import (
	"math"

	"predictive_maintenance/internal/models"
)

// Encode turns form values into the fixed-order vector for the prediction service.
// Missing, non-finite or out-of-range values fall back to the feature default.
func Encode(schema Schema, input models.TelemetryInput) ([]float64, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	out := make([]float64, len(schema))
	for i, f := range schema {
		v, ok := input[f.ID]
		if !ok || !withinRange(v, f.Min, f.Max) {
			v = f.Default
		}
		out[i] = v
	}
	return out, nil
}

func withinRange(v, lo, hi float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= lo && v <= hi
}
