package render

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) UploadVideo(ctx context.Context, cred models.Credentials, localURI string) (string, error) {
	args := m.Called(ctx, cred, localURI)
	return args.String(0), args.Error(1)
}

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) SubmitRender(ctx context.Context, cred models.Credentials, req models.RenderRequest) (string, error) {
	args := m.Called(ctx, cred, req)
	return args.String(0), args.Error(1)
}

func (m *ServiceMock) GetRenderStatus(ctx context.Context, cred models.Credentials, jobID string) (models.JobStatusReport, error) {
	args := m.Called(ctx, cred, jobID)
	return args.Get(0).(models.JobStatusReport), args.Error(1)
}

type ScorerMock struct {
	mock.Mock
}

func (m *ScorerMock) PredictScore(ctx context.Context, cred models.Credentials, videoURL string) int {
	args := m.Called(ctx, cred, videoURL)
	return args.Int(0)
}
