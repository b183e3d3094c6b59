package models

import "time"

// NotificationResult is the outcome reported by an SMS or email provider.
type NotificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AlertRequest is the SMS payload derived from a prediction.
type AlertRequest struct {
	Phone              string        `json:"phone"`
	FailureProbability float64       `json:"failure_probability"`
	RUL                float64       `json:"rul"`
	Severity           AlertSeverity `json:"severity"`
	NearestCenter      string        `json:"nearest_center,omitempty"`
}

// EmailRequest is the report email payload.
type EmailRequest struct {
	Email  string `json:"email"`
	PDFURL string `json:"pdf_url"`
	Date   string `json:"date,omitempty"`
}

// NoticeKind is the visual tone of a transient notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a short-lived message for the view (snackbar style).
type Notice struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Source    string     `json:"source"` // sms | email | upload | chat | insights | analysis
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}
