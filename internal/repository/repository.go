package repository

import (
	"context"
	"database/sql"
	"time"

	"predictive_maintenance/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// EventRepo is the append-only pipeline audit log.
type EventRepo interface {
	Append(ctx context.Context, e models.PipelineEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PipelineEvent, error)
}

type Repository struct {
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
