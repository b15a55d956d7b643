package main

import (
	"context"
	"fmt"
	"os"

	"github.com/romariotrain/clip-studio/internal/app"
	"github.com/romariotrain/clip-studio/internal/config"
	"github.com/romariotrain/clip-studio/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closer, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		File:    cfg.Log.File,
		Service: "outbox",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	code := app.Run("outbox", logger, func(ctx context.Context) error {
		return run(ctx, cfg, logger)
	})
	_ = closer.Close()
	os.Exit(code)
}
