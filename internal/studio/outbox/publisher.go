// Package outbox relays stored domain events to Kafka.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/storage/postgres"
)

type Store interface {
	GetPending(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkProcessed(ctx context.Context, id int64) error
}

type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type PublisherConfig struct {
	Store     Store
	Producer  Producer
	Interval  time.Duration
	BatchSize int
	Logger    zerolog.Logger
}

// BatchStats summarises one relay pass.
type BatchStats struct {
	Total     int
	Published int
	Failed    int
	Skipped   int
	Marked    int
}

// Publisher polls the outbox and delivers each pending event at least once.
// Events are keyed by aggregate id so one project's events keep their order
// within a partition.
type Publisher struct {
	store     Store
	producer  Producer
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Store == nil {
		return nil, errors.New("outbox store is required")
	}
	if cfg.Producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got: %v", cfg.Interval)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got: %d", cfg.BatchSize)
	}

	return &Publisher{
		store:     cfg.Store,
		producer:  cfg.Producer,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With().Str("component", "outbox_publisher").Logger(),
	}, nil
}

// Start blocks until ctx is cancelled. A failing pass is logged and the loop
// carries on with the next tick.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Err(ctx.Err()).Msg("outbox publisher stopped")
			return ctx.Err()

		case <-ticker.C:
			if _, err := p.PublishBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("failed to publish batch")
			}
		}
	}
}

// PublishBatch relays up to one batch of pending events. Records that fail to
// publish stay pending for the next pass, and so does every later record of
// the same aggregate. A record published but not marked will be delivered
// again.
func (p *Publisher) PublishBatch(ctx context.Context) (BatchStats, error) {
	records, err := p.store.GetPending(ctx, p.batchSize)
	if err != nil {
		return BatchStats{}, fmt.Errorf("get pending records: %w", err)
	}

	stats := BatchStats{Total: len(records)}
	if len(records) == 0 {
		p.logger.Debug().Msg("no pending events")
		return stats, nil
	}

	blocked := make(map[string]bool)
	for _, record := range records {
		if ctx.Err() != nil {
			break
		}
		if blocked[record.AggregateID] {
			stats.Skipped++
			continue
		}

		log := p.logger.With().
			Str("event_id", record.EventID).
			Str("event_type", record.EventType).
			Int64("outbox_id", record.ID).
			Logger()

		if err := p.producer.Publish(ctx, record.AggregateID, record.Payload); err != nil {
			log.Error().Err(err).Msg("failed to publish event to kafka")
			stats.Failed++
			blocked[record.AggregateID] = true
			continue
		}
		stats.Published++

		if err := p.store.MarkProcessed(ctx, record.ID); err != nil {
			log.Warn().Err(err).Msg("event published but not marked processed")
			continue
		}
		stats.Marked++
	}

	p.logger.Info().
		Int("total", stats.Total).
		Int("published", stats.Published).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Int("marked", stats.Marked).
		Msg("batch processed")

	return stats, nil
}
