package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func TestEventSink_Append_KeysByProject(t *testing.T) {
	pub := new(publisherMock)
	sink := NewEventSink(pub)

	projectID := uuid.New()
	e := models.NewProjectPublished(projectID, "tiktok", true, "https://t.example/v/1", time.Unix(1700000000, 0).UTC())

	var payload []byte
	pub.On("Publish", mock.Anything, projectID.String(), mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(2).([]byte) }).
		Return(nil).Once()

	require.NoError(t, sink.Append(context.Background(), e))
	pub.AssertExpectations(t)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "tiktok", decoded["platform"])
	assert.Equal(t, projectID.String(), decoded["project_id"])
}

func TestEventSink_Append_PropagatesError(t *testing.T) {
	pub := new(publisherMock)
	sink := NewEventSink(pub)

	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	e := models.NewRenderFinished(uuid.New(), "job-1", "failed", "", nil, time.Now())
	assert.EqualError(t, sink.Append(context.Background(), e), "broker down")
}
