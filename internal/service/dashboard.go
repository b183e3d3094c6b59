package service

import (
	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/pipeline"
)

// DashboardService exposes the orchestration core plus the feature schema
// the form is built from.
type DashboardService struct {
	*pipeline.Pipeline
	schema encoder.Schema
}

func NewDashboardService(p *pipeline.Pipeline, schema encoder.Schema) *DashboardService {
	if len(schema) == 0 {
		schema = encoder.DefaultSchema()
	}
	return &DashboardService{Pipeline: p, schema: schema}
}

// Schema returns a copy of the feature schema in wire order.
func (s *DashboardService) Schema() encoder.Schema {
	return append(encoder.Schema(nil), s.schema...)
}
