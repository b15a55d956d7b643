package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/config"
	"github.com/romariotrain/clip-studio/internal/storage/postgres"
	"github.com/romariotrain/clip-studio/internal/studio/kafka"
	"github.com/romariotrain/clip-studio/internal/studio/outbox"
)

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	if !cfg.KafkaEnabled() {
		return errors.New("KAFKA_BROKERS is empty")
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	if err := producer.HealthCheck(ctx); err != nil {
		logger.Warn().Err(err).Msg("kafka not reachable yet, relay will keep retrying")
	}

	relay, err := outbox.NewPublisher(outbox.PublisherConfig{
		Store:     postgres.NewOutboxRepo(db),
		Producer:  producer,
		Interval:  cfg.Outbox.Interval,
		BatchSize: cfg.Outbox.BatchSize,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("outbox publisher: %w", err)
	}

	if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
