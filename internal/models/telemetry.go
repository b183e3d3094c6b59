package models

// TelemetryInput maps a feature id to the value entered in the form.
// Order is irrelevant; the encoder decides the wire order.
type TelemetryInput map[string]float64

// FeatureDefinition describes one model input.
type FeatureDefinition struct {
	ID      string  `json:"id" mapstructure:"id"`
	Label   string  `json:"label" mapstructure:"label"`
	Unit    string  `json:"unit,omitempty" mapstructure:"unit"`
	Default float64 `json:"default" mapstructure:"default"`
	Min     float64 `json:"min" mapstructure:"min"`
	Max     float64 `json:"max" mapstructure:"max"`
}
