package pipeline

import (
	"context"
	"time"

	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/logger"
	"predictive_maintenance/internal/models"
)

type Predictor interface {
	Predict(ctx context.Context, features []float64) (models.PredictionResult, error)
}

type InsightSource interface {
	GetAIInsights(ctx context.Context, req models.InsightRequest) (string, error)
}

type ReportRenderer interface {
	Render(result models.PredictionResult, cards []models.InsightCard) (models.ReportArtifact, error)
}

type ArtifactStore interface {
	UploadArtifact(ctx context.Context, artifact models.ReportArtifact) (models.StoredArtifact, error)
}

type AlertSender interface {
	SendAlert(ctx context.Context, req models.AlertRequest) (models.NotificationResult, error)
}

type ReportMailer interface {
	SendReportEmail(ctx context.Context, req models.EmailRequest) (models.NotificationResult, error)
}

type ChatAssistant interface {
	InitializeChat(ctx context.Context, result models.PredictionResult, pdfURL string) (string, error)
	SendChatMessage(ctx context.Context, text string) (string, error)
}

// EventRecorder persists the audit trail. Optional.
type EventRecorder interface {
	Append(ctx context.Context, ev models.PipelineEvent) error
}

// Deps are the collaborators driven by the pipeline. All but Events are required.
type Deps struct {
	Predictor Predictor
	Insights  InsightSource
	Renderer  ReportRenderer
	Store     ArtifactStore
	Alerts    AlertSender
	Mailer    ReportMailer
	Chat      ChatAssistant
	Events    EventRecorder
}

type Options struct {
	Schema       encoder.Schema
	DefaultEmail string
	DefaultPhone string
	TaskTimeout  time.Duration
	NoticeTTL    time.Duration
	Logger       *logger.Logger
	Now          func() time.Time
}

const (
	defaultTaskTimeout = 30 * time.Second
	defaultNoticeTTL   = 6 * time.Second
)

func (o *Options) setDefaults() {
	if len(o.Schema) == 0 {
		o.Schema = encoder.DefaultSchema()
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = defaultTaskTimeout
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = defaultNoticeTTL
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}
