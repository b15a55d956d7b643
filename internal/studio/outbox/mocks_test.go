package outbox

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-studio/internal/storage/postgres"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]postgres.OutboxRecord)
	return records, args.Error(1)
}

func (m *StoreMock) MarkProcessed(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type ProducerMock struct {
	mock.Mock
}

func (m *ProducerMock) Publish(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}
