package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/render"
)

type RendererMock struct {
	mock.Mock
}

func (m *RendererMock) Render(ctx context.Context, in render.Input) (*render.Outcome, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*render.Outcome)
	return out, args.Error(1)
}

type AnalyzerMock struct {
	mock.Mock
}

func (m *AnalyzerMock) Analyze(ctx context.Context, cred models.Credentials, videoURL string) models.ViralScore {
	args := m.Called(ctx, cred, videoURL)
	return args.Get(0).(models.ViralScore)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, cred models.Credentials, req models.PublishRequest) models.PublishResult {
	args := m.Called(ctx, cred, req)
	return args.Get(0).(models.PublishResult)
}
