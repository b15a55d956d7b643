package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/config"
	"github.com/romariotrain/clip-studio/internal/logging"
	"github.com/romariotrain/clip-studio/internal/storage/postgres"
	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/httpapi"
	"github.com/romariotrain/clip-studio/internal/studio/kafka"
	"github.com/romariotrain/clip-studio/internal/studio/publish"
	"github.com/romariotrain/clip-studio/internal/studio/remote"
	"github.com/romariotrain/clip-studio/internal/studio/render"
	"github.com/romariotrain/clip-studio/internal/studio/repository"
	"github.com/romariotrain/clip-studio/internal/studio/service"
	"github.com/romariotrain/clip-studio/internal/studio/timeline"
	"github.com/romariotrain/clip-studio/internal/studio/viral"
)

const shutdownTimeout = 10 * time.Second

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	projects, events, cleanup, err := stores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog := effects.DefaultCatalog()
	if cfg.Studio.EffectCatalog != "" {
		if catalog, err = effects.LoadCatalog(cfg.Studio.EffectCatalog); err != nil {
			return fmt.Errorf("effect catalog: %w", err)
		}
	}

	client := remote.New(remote.Endpoints{
		Storage:    cfg.Remote.StorageURL,
		Render:     cfg.Remote.RenderURL,
		Prediction: cfg.Remote.PredictionURL,
		Publish:    cfg.Remote.PublishURL,
	}, cfg.Remote.RequestTimeout, logger)

	scores := viral.New(client, viral.RandomFallback{
		Min: cfg.Studio.FallbackScoreMin,
		Max: cfg.Studio.FallbackScoreMax,
	}, logger)

	// svc is assigned below; the observer only fires once renders start.
	var svc *service.Service
	renderer, err := render.New(renderConfig(cfg, client, scores, func(id uuid.UUID, from, to domain.RenderState) {
		svc.ObserveRender(id, from, to)
	}, logger))
	if err != nil {
		return fmt.Errorf("render orchestrator: %w", err)
	}

	publisher, err := publish.New(publish.Config{
		Service: client,
		Events:  events,
		ShareQR: true,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("publish orchestrator: %w", err)
	}

	svc, err = service.New(service.Config{
		Projects:         projects,
		Events:           events,
		Renderer:         renderer,
		Analyzer:         scores,
		Publisher:        publisher,
		Catalog:          catalog,
		Geometry:         timeline.NewGeometry(cfg.Studio.BasePixelDensity, cfg.Studio.ZoomMin, cfg.Studio.ZoomMax),
		AutosaveInterval: cfg.Studio.AutosaveInterval,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(httpapi.New(svc, logger)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("listen and serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutdown: %w", err))
	}
	// ends every open session, which runs a final save
	if err := svc.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("close sessions: %w", err))
	}
	return serveErr
}

func renderConfig(cfg config.Config, client *remote.Client, scores render.Scorer, observe render.Observer, logger zerolog.Logger) render.Config {
	return render.Config{
		Uploader:          client,
		Service:           client,
		Scorer:            scores,
		PollInterval:      cfg.Studio.PollInterval,
		MaxAttempts:       cfg.Studio.PollMaxAttempts,
		UploadConcurrency: cfg.Studio.UploadConcurrency,
		StatusTimeout:     cfg.Remote.RequestTimeout,
		Observer:          observe,
		Logger:            logger,
	}
}

// stores picks the project and event backends. With a database, events go to
// the outbox table and cmd/outbox relays them; without one they go straight to
// Kafka when brokers are configured, otherwise they stay in memory.
func stores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (repository.ProjectStore, repository.EventStore, func(), error) {
	log := logging.WithComponent(logger, "storage")

	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.DefaultPoolConfig())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		log.Info().Msg("using postgres project store and outbox")
		return postgres.NewProjectRepo(db), postgres.NewOutboxRepo(db), func() { db.Close() }, nil
	}

	projects := repository.NewMemoryRepository()
	if cfg.KafkaEnabled() {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("using in-memory project store, events to kafka")
		return projects, kafka.NewEventSink(producer), func() { _ = producer.Close() }, nil
	}

	log.Warn().Msg("no DATABASE_URL or KAFKA_BROKERS; projects and events are kept in memory")
	return projects, repository.NewMemoryEvents(), func() {}, nil
}
