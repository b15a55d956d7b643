package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]*models.VideoProject
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.VideoProject),
	}
}

// Save inserts or replaces the project. CreatedAt of an existing record is kept.
func (r *MemoryRepository) Save(ctx context.Context, p *models.VideoProject) error {
	if p == nil || p.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := p.Clone()
	if prev, ok := r.data[p.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	r.data[p.ID] = cp
	return nil
}

func (r *MemoryRepository) Load(ctx context.Context, id uuid.UUID) (*models.VideoProject, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.VideoProject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*models.VideoProject, 0)
	for _, p := range r.data {
		if p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.VideoProject) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemoryEvents struct {
	mu     sync.Mutex
	events []models.DomainEvent
}

func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{}
}

func (m *MemoryEvents) Append(ctx context.Context, e models.DomainEvent) error {
	if e == nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryEvents) Events() []models.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.DomainEvent(nil), m.events...)
}
