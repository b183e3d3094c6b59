package client

import (
	"context"
	"net/http"

	"predictive_maintenance/internal/models"
)

type notifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendAlert asks the backend to text the prediction summary to a phone.
func (b *Backend) SendAlert(ctx context.Context, req models.AlertRequest) (models.NotificationResult, error) {
	var resp notifyResponse
	if err := b.call(ctx, "send_alert", http.MethodPost, "/send-alert", nil, req, &resp); err != nil {
		return models.NotificationResult{}, err
	}
	return models.NotificationResult{Success: true, Message: resp.Message}, nil
}

// SendReportEmail asks the backend to email the uploaded report link.
func (b *Backend) SendReportEmail(ctx context.Context, req models.EmailRequest) (models.NotificationResult, error) {
	var resp notifyResponse
	if err := b.call(ctx, "send_report_email", http.MethodPost, "/send-report-email", nil, req, &resp); err != nil {
		return models.NotificationResult{}, err
	}
	return models.NotificationResult{Success: true, Message: resp.Message}, nil
}
