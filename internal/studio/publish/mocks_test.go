package publish

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) PublishToSocial(ctx context.Context, cred models.Credentials, req models.PublishRequest) (models.PublishReceipt, error) {
	args := m.Called(ctx, cred, req)
	return args.Get(0).(models.PublishReceipt), args.Error(1)
}

type EventStoreMock struct {
	mock.Mock
}

func (m *EventStoreMock) Append(ctx context.Context, e models.DomainEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("unexpected status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }
