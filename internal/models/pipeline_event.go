package models

import "time"

// Pipeline event types written to the audit log.
const (
	EventAnalyzed       = "ANALYZED"
	EventAnalysisFailed = "ANALYSIS_FAILED"
	EventUploaded       = "UPLOADED"
	EventUploadFailed   = "UPLOAD_FAILED"
	EventEmailSent      = "EMAIL_SENT"
	EventEmailFailed    = "EMAIL_FAILED"
	EventSmsSent        = "SMS_SENT"
	EventSmsFailed      = "SMS_FAILED"
	EventChatReady      = "CHAT_READY"
	EventChatFailed     = "CHAT_FAILED"
)

// PipelineEvent is a single audit log entry.
type PipelineEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Generation  uint64    `json:"generation"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
