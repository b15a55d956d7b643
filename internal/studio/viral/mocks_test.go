package viral

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type PredictorMock struct {
	mock.Mock
}

func (m *PredictorMock) PredictViralScore(ctx context.Context, cred models.Credentials, videoURL string) (int, error) {
	args := m.Called(ctx, cred, videoURL)
	return args.Int(0), args.Error(1)
}

func (m *PredictorMock) GetViralAnalysis(ctx context.Context, cred models.Credentials, videoURL string) (models.ViralScore, error) {
	args := m.Called(ctx, cred, videoURL)
	return args.Get(0).(models.ViralScore), args.Error(1)
}
