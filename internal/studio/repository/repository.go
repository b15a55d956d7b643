package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type ProjectStore interface {
	Save(ctx context.Context, p *models.VideoProject) error
	Load(ctx context.Context, id uuid.UUID) (*models.VideoProject, error)
	// ListByOwner returns up to limit projects, most recently updated first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.VideoProject, error)
}

type EventStore interface {
	Append(ctx context.Context, e models.DomainEvent) error
}
