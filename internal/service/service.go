package service

import (
	"context"
	"time"

	"predictive_maintenance/internal/encoder"
	"predictive_maintenance/internal/geo"
	"predictive_maintenance/internal/models"
	"predictive_maintenance/internal/pipeline"
	"predictive_maintenance/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Dashboard drives the analysis pipeline and exposes its snapshots.
type Dashboard interface {
	Schema() encoder.Schema
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (pipeline.Snapshot, error)
	Snapshot() pipeline.Snapshot
	Subscribe() (<-chan pipeline.Snapshot, func())
	RefreshInsights() error
	RetryUpload() error
	SendEmail(email string) error
	SendAlert(phone string) error
	InitChat() error
	Chat(ctx context.Context, text string) (models.ChatMessage, error)
	Download() (models.ReportArtifact, error)
	DismissNotice(id string) bool
}

// Workshops finds service centers near the user.
type Workshops interface {
	Nearby(ctx context.Context, locator geo.Locator, radiusM int) ([]models.ServiceCenter, error)
}

// EventLog exposes the append-only pipeline audit log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PipelineEvent, error)
}

// Sweeper runs the background loop that expires notices.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Dashboard
	Workshops
	EventLog
	Sweeper
}

// Options carries what the services need beyond the repositories.
type Options struct {
	Auth            AuthOptions
	Pipeline        *pipeline.Pipeline
	Schema          encoder.Schema
	Centers         CenterFinder
	DefaultLocation models.Coordinates
	DefaultRadiusM  int
}

// NewService wires the repository layer and the pipeline into concrete services.
func NewService(repos *repository.Repository, opts Options) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth, opts.Auth),
		Dashboard:     NewDashboardService(opts.Pipeline, opts.Schema),
		Workshops:     NewWorkshopService(opts.Centers, opts.DefaultLocation, opts.DefaultRadiusM),
		EventLog:      NewEventLogService(repos.EventRepo),
		Sweeper:       opts.Pipeline,
	}
}
