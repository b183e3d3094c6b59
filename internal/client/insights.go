package client

import (
	"context"
	"net/http"
	"strings"

	"predictive_maintenance/internal/models"
)

type insightsResponse struct {
	Insights string `json:"insights"`
}

// GetAIInsights returns the raw assistant text; parsing is the caller's job.
func (b *Backend) GetAIInsights(ctx context.Context, req models.InsightRequest) (string, error) {
	var resp insightsResponse
	if err := b.call(ctx, "ai_insights", http.MethodPost, "/ai-insights", nil, req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Insights) == "" {
		return "", &NetworkError{Op: "ai_insights", Err: errMissing("insights")}
	}
	return resp.Insights, nil
}

type missingFieldError string

func (f missingFieldError) Error() string { return "response has no " + string(f) }

func errMissing(field string) error { return missingFieldError(field) }
