package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-studio/internal/config"
	"github.com/romariotrain/clip-studio/internal/studio/remote"
)

func TestRenderConfig_UsesRequestTimeoutForStatusChecks(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "7s")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("POLL_MAX_ATTEMPTS", "12")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	client := remote.New(remote.Endpoints{}, cfg.Remote.RequestTimeout, zerolog.Nop())
	rc := renderConfig(cfg, client, nil, nil, zerolog.Nop())

	assert.Equal(t, 7*time.Second, rc.StatusTimeout)
	assert.Equal(t, 2*time.Second, rc.PollInterval)
	assert.Equal(t, 12, rc.MaxAttempts)
	assert.Equal(t, cfg.Studio.UploadConcurrency, rc.UploadConcurrency)
}
