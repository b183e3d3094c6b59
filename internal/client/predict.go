package client

import (
	"context"
	"net/http"

	"predictive_maintenance/internal/models"
)

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	KPIs            *models.KPIs         `json:"kpis"`
	ComponentHealth map[string]float64   `json:"component_health"`
	Contributors    []models.Contributor `json:"degradation_contributors"`
	Decision        struct {
		Level       string `json:"level"`
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"maintenance_decision"`
}

// Predict sends the encoded feature vector to the inference service.
// The returned result has no ID or timestamp; the pipeline assigns them.
func (b *Backend) Predict(ctx context.Context, features []float64) (models.PredictionResult, error) {
	const op = "predict"
	var resp predictResponse
	if err := b.call(ctx, op, http.MethodPost, "/predict", nil, predictRequest{Features: features}, &resp); err != nil {
		return models.PredictionResult{}, err
	}
	if resp.KPIs == nil {
		return models.PredictionResult{}, &NetworkError{Op: op, Err: errMissing("kpis")}
	}
	level, err := models.ParseMaintenanceLevel(resp.Decision.Level)
	if err != nil {
		return models.PredictionResult{}, &NetworkError{Op: op, Err: err}
	}

	result := models.PredictionResult{
		KPIs:            *resp.KPIs,
		ComponentHealth: resp.ComponentHealth,
		Contributors:    resp.Contributors,
		Decision: models.MaintenanceDecision{
			Level:       level,
			Message:     resp.Decision.Message,
			Description: resp.Decision.Description,
		},
	}
	if result.ComponentHealth == nil {
		result.ComponentHealth = map[string]float64{}
	}
	if err := result.Validate(); err != nil {
		return models.PredictionResult{}, &NetworkError{Op: op, Err: err}
	}
	return result, nil
}
