package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaintenanceLevel is the urgency reported by the inference service.
type MaintenanceLevel string

const (
	MaintenanceNormal   MaintenanceLevel = "normal"
	MaintenanceSoon     MaintenanceLevel = "soon"
	MaintenanceWarning  MaintenanceLevel = "warning"
	MaintenanceCritical MaintenanceLevel = "critical"
)

// ParseMaintenanceLevel normalizes a wire value. "immediate" is an alias of critical.
func ParseMaintenanceLevel(s string) (MaintenanceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return MaintenanceNormal, nil
	case "soon":
		return MaintenanceSoon, nil
	case "warning":
		return MaintenanceWarning, nil
	case "critical", "immediate":
		return MaintenanceCritical, nil
	default:
		return "", fmt.Errorf("unknown maintenance level %q", s)
	}
}

// KPIs are the headline indicators of a prediction.
type KPIs struct {
	FailureProbability  float64 `json:"failure_probability"`   // percent, [0,100]
	RemainingUsefulLife float64 `json:"remaining_useful_life"` // cycles
	AnomalyScore        float64 `json:"anomaly_score"`
	OverallHealth       float64 `json:"overall_health"` // percent, [0,100]
}

// Contributor is a feature that drives the predicted failure risk.
type Contributor struct {
	Feature    string  `json:"feature"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// MaintenanceDecision is the recommendation attached to a prediction.
type MaintenanceDecision struct {
	Level       MaintenanceLevel `json:"level"`
	Message     string           `json:"message"`
	Description string           `json:"description,omitempty"`
}

// PredictionResult is immutable once the pipeline accepts it.
type PredictionResult struct {
	ID              string              `json:"id"`
	CreatedAt       time.Time           `json:"created_at"`
	KPIs            KPIs                `json:"kpis"`
	ComponentHealth map[string]float64  `json:"component_health"`
	Contributors    []Contributor       `json:"degradation_contributors"`
	Decision        MaintenanceDecision `json:"maintenance_decision"`
}

// Validate checks the ranges documented for each KPI and component score.
func (r PredictionResult) Validate() error {
	k := r.KPIs
	if !inRange(k.FailureProbability, 0, 100) {
		return fmt.Errorf("failure probability %v out of [0,100]", k.FailureProbability)
	}
	if !finite(k.RemainingUsefulLife) || k.RemainingUsefulLife < 0 {
		return fmt.Errorf("remaining useful life %v must be >= 0", k.RemainingUsefulLife)
	}
	if !finite(k.AnomalyScore) || k.AnomalyScore < 0 {
		return fmt.Errorf("anomaly score %v must be >= 0", k.AnomalyScore)
	}
	if !inRange(k.OverallHealth, 0, 100) {
		return fmt.Errorf("overall health %v out of [0,100]", k.OverallHealth)
	}
	for name, score := range r.ComponentHealth {
		if !inRange(score, 0, 100) {
			return fmt.Errorf("component %q health %v out of [0,100]", name, score)
		}
	}
	return nil
}

// HasContributors reports whether insight cards can be requested for this result.
func (r PredictionResult) HasContributors() bool {
	return len(r.Contributors) > 0
}

// AlertSeverity classifies a failure probability for SMS alerts.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertWarning  AlertSeverity = "warning"
	AlertNormal   AlertSeverity = "normal"
)

const (
	criticalThreshold = 70.0
	warningThreshold  = 40.0
)

// ClassifyAlertSeverity maps a failure probability (percent) to an alert severity.
func ClassifyAlertSeverity(failureProbability float64) AlertSeverity {
	switch {
	case failureProbability >= criticalThreshold:
		return AlertCritical
	case failureProbability >= warningThreshold:
		return AlertWarning
	default:
		return AlertNormal
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inRange(v, lo, hi float64) bool {
	return finite(v) && v >= lo && v <= hi
}
