package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-studio/internal/storage/postgres"
)

func newPublisher(t *testing.T, store Store, producer Producer) *Publisher {
	t.Helper()
	p, err := NewPublisher(PublisherConfig{
		Store:     store,
		Producer:  producer,
		Interval:  10 * time.Millisecond,
		BatchSize: 50,
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	return p
}

func record(id int64, aggregate string) postgres.OutboxRecord {
	return postgres.OutboxRecord{
		ID:          id,
		EventID:     "evt-" + aggregate,
		EventType:   "RenderFinished",
		AggregateID: aggregate,
		Payload:     []byte(`{"state":"succeeded"}`),
	}
}

func TestNewPublisher_Validation(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)

	cases := map[string]PublisherConfig{
		"no store":      {Producer: producer, Interval: time.Second, BatchSize: 1},
		"no producer":   {Store: store, Interval: time.Second, BatchSize: 1},
		"zero interval": {Store: store, Producer: producer, BatchSize: 1},
		"zero batch":    {Store: store, Producer: producer, Interval: time.Second},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := NewPublisher(cfg)
			require.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestPublishBatch_PublishesAndMarks(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	store.On("GetPending", mock.Anything, 50).
		Return([]postgres.OutboxRecord{record(1, "p-1"), record(2, "p-2")}, nil).Once()
	producer.On("Publish", mock.Anything, "p-1", mock.Anything).Return(nil).Once()
	producer.On("Publish", mock.Anything, "p-2", mock.Anything).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(1)).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(2)).Return(nil).Once()

	stats, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Total: 2, Published: 2, Marked: 2}, stats)

	store.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestPublishBatch_FailedPublishStaysPending(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	store.On("GetPending", mock.Anything, 50).
		Return([]postgres.OutboxRecord{record(1, "p-1"), record(2, "p-2")}, nil).Once()
	producer.On("Publish", mock.Anything, "p-1", mock.Anything).Return(errors.New("broker down")).Once()
	producer.On("Publish", mock.Anything, "p-2", mock.Anything).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(2)).Return(nil).Once()

	stats, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Total: 2, Published: 1, Failed: 1, Marked: 1}, stats)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, int64(1))
}

func TestPublishBatch_FailureHoldsBackLaterEventsOfSameProject(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	first, second := record(1, "proj"), record(2, "proj")
	second.EventID = "evt-proj-2"
	other := record(3, "other")

	store.On("GetPending", mock.Anything, 50).
		Return([]postgres.OutboxRecord{first, second, other}, nil).Once()
	producer.On("Publish", mock.Anything, "proj", mock.Anything).Return(errors.New("broker down")).Once()
	producer.On("Publish", mock.Anything, "other", mock.Anything).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(3)).Return(nil).Once()

	stats, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchStats{Total: 3, Published: 1, Failed: 1, Skipped: 1, Marked: 1}, stats)

	producer.AssertNumberOfCalls(t, "Publish", 2)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, int64(1))
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, int64(2))
	store.AssertExpectations(t)
}

func TestPublishBatch_MarkFailureIsNotFatal(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	store.On("GetPending", mock.Anything, 50).Return([]postgres.OutboxRecord{record(7, "p-7")}, nil).Once()
	producer.On("Publish", mock.Anything, "p-7", mock.Anything).Return(nil).Once()
	store.On("MarkProcessed", mock.Anything, int64(7)).Return(errors.New("db gone")).Once()

	stats, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Published)
	assert.Zero(t, stats.Marked)
}

func TestPublishBatch_StoreError(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	store.On("GetPending", mock.Anything, 50).Return(nil, errors.New("timeout")).Once()

	_, err := p.PublishBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get pending records")
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestStart_StopsOnCancel(t *testing.T) {
	store, producer := new(StoreMock), new(ProducerMock)
	p := newPublisher(t, store, producer)

	store.On("GetPending", mock.Anything, 50).Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
	store.AssertCalled(t, "GetPending", mock.Anything, 50)
}
