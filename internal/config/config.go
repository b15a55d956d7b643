// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	Kafka  Kafka
	Outbox Outbox
	Remote Remote
	Studio Studio
	Log    Log
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"studio.events"`
}

type Outbox struct {
	Interval  time.Duration `env:"OUTBOX_INTERVAL" envDefault:"2s"`
	BatchSize int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
}

type Remote struct {
	StorageURL     string        `env:"STORAGE_URL"`
	RenderURL      string        `env:"RENDER_URL"`
	PredictionURL  string        `env:"PREDICTION_URL"`
	PublishURL     string        `env:"PUBLISH_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

type Studio struct {
	AutosaveInterval  time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`
	PollInterval      time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	PollMaxAttempts   int           `env:"POLL_MAX_ATTEMPTS" envDefault:"60"`
	UploadConcurrency int           `env:"UPLOAD_CONCURRENCY" envDefault:"4"`
	FallbackScoreMin  int           `env:"FALLBACK_SCORE_MIN" envDefault:"30"`
	FallbackScoreMax  int           `env:"FALLBACK_SCORE_MAX" envDefault:"70"`
	BasePixelDensity  float64       `env:"BASE_PIXEL_DENSITY" envDefault:"50"`
	ZoomMin           float64       `env:"ZOOM_MIN" envDefault:"0.5"`
	ZoomMax           float64       `env:"ZOOM_MAX" envDefault:"3.0"`
	EffectCatalog     string        `env:"EFFECT_CATALOG"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
	File   string `env:"LOG_FILE"`
}

// Load reads .env files (missing ones are ignored) and then the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}

	positive("AUTOSAVE_INTERVAL", c.Studio.AutosaveInterval)
	positive("POLL_INTERVAL", c.Studio.PollInterval)
	positive("REQUEST_TIMEOUT", c.Remote.RequestTimeout)
	positive("OUTBOX_INTERVAL", c.Outbox.Interval)

	if c.Studio.PollMaxAttempts <= 0 {
		errs = append(errs, errors.New("POLL_MAX_ATTEMPTS must be positive"))
	}
	if c.Studio.UploadConcurrency <= 0 {
		errs = append(errs, errors.New("UPLOAD_CONCURRENCY must be positive"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Studio.FallbackScoreMin < 0 || c.Studio.FallbackScoreMax > 100 || c.Studio.FallbackScoreMin > c.Studio.FallbackScoreMax {
		errs = append(errs, fmt.Errorf("fallback score range [%d, %d] must lie within [0, 100]",
			c.Studio.FallbackScoreMin, c.Studio.FallbackScoreMax))
	}
	if c.Studio.BasePixelDensity <= 0 {
		errs = append(errs, errors.New("BASE_PIXEL_DENSITY must be positive"))
	}
	if c.Studio.ZoomMin <= 0 || c.Studio.ZoomMin > c.Studio.ZoomMax {
		errs = append(errs, fmt.Errorf("zoom range [%g, %g] is invalid", c.Studio.ZoomMin, c.Studio.ZoomMax))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// KafkaEnabled reports whether events should go to Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
