package project

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Save(ctx context.Context, p *models.VideoProject) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *StoreMock) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.VideoProject, error) {
	args := m.Called(ctx, ownerID, limit)
	projects, _ := args.Get(0).([]*models.VideoProject)
	return projects, args.Error(1)
}

func (m *StoreMock) Load(ctx context.Context, id uuid.UUID) (*models.VideoProject, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.VideoProject), args.Error(1)
	}
	return nil, args.Error(1)
}
