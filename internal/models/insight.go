package models

// InsightType categorises an advisory card.
type InsightType string

const (
	InsightCritical InsightType = "critical"
	InsightWarning  InsightType = "warning"
	InsightInfo     InsightType = "info"
	InsightTip      InsightType = "tip"
)

// InsightCard is one natural-language advisory unit.
type InsightCard struct {
	Type        InsightType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
}

// InsightRequest is what the insight collaborator needs to produce cards.
type InsightRequest struct {
	Contributors    []Contributor      `json:"contributors"`
	KPIs            *KPIs              `json:"kpis,omitempty"`
	ComponentHealth map[string]float64 `json:"component_health,omitempty"`
}
