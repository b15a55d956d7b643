// Package render turns a snapshot of a project's tracks into a rendered video:
// local media is uploaded, a render job is submitted and then polled until it
// completes, fails or runs out of attempts.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/models"
)

const (
	DefaultPollInterval      = 5 * time.Second
	DefaultMaxAttempts       = 60
	DefaultUploadConcurrency = 4
	DefaultStatusTimeout     = 30 * time.Second
)

type Uploader interface {
	UploadVideo(ctx context.Context, cred models.Credentials, localURI string) (string, error)
}

type Service interface {
	SubmitRender(ctx context.Context, cred models.Credentials, req models.RenderRequest) (string, error)
	GetRenderStatus(ctx context.Context, cred models.Credentials, jobID string) (models.JobStatusReport, error)
}

// Scorer predicts the viral score of a rendered video. It always yields a score.
type Scorer interface {
	PredictScore(ctx context.Context, cred models.Credentials, videoURL string) int
}

// Observer is notified of every state change of a render cycle.
type Observer func(projectID uuid.UUID, from, to domain.RenderState)

type Config struct {
	Uploader          Uploader
	Service           Service
	Scorer            Scorer
	PollInterval      time.Duration
	MaxAttempts       int
	UploadConcurrency int
	StatusTimeout     time.Duration
	Observer          Observer
	Logger            zerolog.Logger
}

type Orchestrator struct {
	uploader      Uploader
	service       Service
	scorer        Scorer
	interval      time.Duration
	maxAttempts   int
	concurrency   int
	statusTimeout time.Duration
	observer      Observer
	logger        zerolog.Logger
	clock         func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if cfg.Service == nil {
		return nil, fmt.Errorf("render service is required")
	}
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if cfg.PollInterval < 0 || cfg.MaxAttempts < 0 || cfg.UploadConcurrency < 0 || cfg.StatusTimeout < 0 {
		return nil, fmt.Errorf("render config values cannot be negative")
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.UploadConcurrency == 0 {
		cfg.UploadConcurrency = DefaultUploadConcurrency
	}
	if cfg.StatusTimeout == 0 {
		cfg.StatusTimeout = DefaultStatusTimeout
	}

	return &Orchestrator{
		uploader:      cfg.Uploader,
		service:       cfg.Service,
		scorer:        cfg.Scorer,
		interval:      cfg.PollInterval,
		maxAttempts:   cfg.MaxAttempts,
		concurrency:   cfg.UploadConcurrency,
		statusTimeout: cfg.StatusTimeout,
		observer:      cfg.Observer,
		logger:        cfg.Logger.With().Str("component", "render_orchestrator").Logger(),
		clock:         time.Now,
		sleep:         sleepContext,
		inflight:      make(map[uuid.UUID]struct{}),
	}, nil
}

// Input is one render request. Project must be a snapshot owned by the caller;
// the orchestrator never writes it back.
type Input struct {
	Credentials models.Credentials
	Project     *models.VideoProject
	Mode        models.ContentMode
}

// Outcome describes where a render cycle ended.
type Outcome struct {
	ProjectID uuid.UUID
	State     domain.RenderState
	Request   *models.RenderRequest
	Job       *models.RenderJob
	Score     *int
	Uploaded  int
	Attempts  int
	Err       error
}

// JobError carries the error reported by the render service for a failed job.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	return fmt.Sprintf("render job %s failed: %s", e.JobID, e.Message)
}

func (e *JobError) Unwrap() error { return models.ErrRenderFailed }

// Render runs one render cycle. The returned Outcome is never nil; its Err is
// also returned as the error.
func (o *Orchestrator) Render(ctx context.Context, in Input) (*Outcome, error) {
	out := &Outcome{State: domain.RenderIdle}
	if in.Project == nil || in.Project.ID == uuid.Nil {
		out.Err = models.ErrInvalidArgument
		return out, out.Err
	}
	p := in.Project
	out.ProjectID = p.ID

	if err := checkSources(p.Tracks); err != nil {
		out.Err = err
		return out, err
	}

	if !o.acquire(p.ID) {
		out.Err = models.ErrRenderInProgress
		return out, out.Err
	}
	defer o.release(p.ID)

	log := o.logger.With().Str("project_id", p.ID.String()).Logger()

	o.transition(out, domain.RenderUploading)
	resolved, uploaded, err := o.upload(ctx, in.Credentials, p.Tracks)
	if err != nil {
		return o.abort(ctx, out, fmt.Errorf("upload: %w", err))
	}
	out.Uploaded = uploaded

	o.transition(out, domain.RenderSubmitting)
	mode := in.Mode
	if mode == "" {
		mode = p.Mode
	}
	req := models.RenderRequest{
		ProjectID:   p.ID,
		Tracks:      resolved,
		Duration:    models.TimelineDuration(resolved),
		AspectRatio: p.AspectRatio,
		Mode:        mode,
	}
	if err := checkResolved(req.Tracks); err != nil {
		return o.abort(ctx, out, err)
	}
	out.Request = &req

	jobID, err := o.service.SubmitRender(ctx, in.Credentials, req)
	if err != nil {
		return o.abort(ctx, out, fmt.Errorf("submit render: %w", err))
	}
	out.Job = &models.RenderJob{ID: jobID, Status: models.JobPending, SubmittedAt: o.clock()}
	log.Info().
		Str("job_id", jobID).
		Int("tracks", len(req.Tracks)).
		Int("uploaded", uploaded).
		Float64("duration", req.Duration).
		Msg("render submitted")

	o.transition(out, domain.RenderPolling)
	return o.poll(ctx, in.Credentials, out, log)
}

func (o *Orchestrator) poll(ctx context.Context, cred models.Credentials, out *Outcome, log zerolog.Logger) (*Outcome, error) {
	job := out.Job

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := o.sleep(ctx, o.interval); err != nil {
			return o.abort(ctx, out, err)
		}
		out.Attempts = attempt

		// A status check in flight is allowed to finish even if ctx is cancelled.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.statusTimeout)
		report, err := o.service.GetRenderStatus(callCtx, cred, job.ID)
		cancel()
		if err != nil {
			log.Warn().Err(err).
				Str("job_id", job.ID).
				Int("attempt", attempt).
				Msg("render status check failed")
			continue
		}

		job.Apply(report, o.clock())
		switch job.Status {
		case models.JobCompleted:
			if job.Result == nil || job.Result.VideoURL == "" {
				job.Status = models.JobFailed
				job.Error = "completed without a video url"
				return o.failJob(out, log)
			}
			o.transition(out, domain.RenderSucceeded)
			score := o.scorer.PredictScore(ctx, cred, job.Result.VideoURL)
			out.Score = &score
			log.Info().
				Str("job_id", job.ID).
				Int("attempts", attempt).
				Str("video_url", job.Result.VideoURL).
				Int("score", score).
				Msg("render succeeded")
			return out, nil
		case models.JobFailed:
			return o.failJob(out, log)
		}
	}

	o.transition(out, domain.RenderTimedOut)
	out.Err = fmt.Errorf("%w: job %s still %s after %d attempts", models.ErrRenderTimedOut, job.ID, job.Status, o.maxAttempts)
	log.Warn().Str("job_id", job.ID).Int("attempts", o.maxAttempts).Msg("render timed out")
	return out, out.Err
}

func (o *Orchestrator) failJob(out *Outcome, log zerolog.Logger) (*Outcome, error) {
	o.transition(out, domain.RenderFailed)
	out.Err = &JobError{JobID: out.Job.ID, Message: out.Job.Error}
	log.Error().Err(out.Err).Msg("render failed")
	return out, out.Err
}

// abort ends the cycle as Cancelled when ctx was cancelled, Failed otherwise.
func (o *Orchestrator) abort(ctx context.Context, out *Outcome, err error) (*Outcome, error) {
	if ctx.Err() != nil {
		o.transition(out, domain.RenderCancelled)
		out.Err = fmt.Errorf("%w: %w", models.ErrRenderCancelled, err)
	} else {
		o.transition(out, domain.RenderFailed)
		if errors.Is(err, models.ErrUnresolvedSource) {
			out.Err = err
		} else {
			out.Err = fmt.Errorf("%w: %w", models.ErrRenderFailed, err)
		}
	}
	o.logger.Error().
		Err(out.Err).
		Str("project_id", out.ProjectID.String()).
		Str("state", string(out.State)).
		Msg("render aborted")
	return out, out.Err
}

// upload resolves every distinct local source. Uploads run concurrently; the
// first failure cancels the rest and nothing is returned.
func (o *Orchestrator) upload(ctx context.Context, cred models.Credentials, tracks []models.VideoTrack) ([]models.VideoTrack, int, error) {
	resolved := models.CloneTracks(tracks)

	var pending []string
	seen := make(map[string]bool)
	for _, t := range resolved {
		if models.IsLocalSource(t.Source) && !seen[t.Source] {
			seen[t.Source] = true
			pending = append(pending, t.Source)
		}
	}
	if len(pending) == 0 {
		return resolved, 0, nil
	}

	urls := make([]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, src := range pending {
		g.Go(func() error {
			url, err := o.uploader.UploadVideo(gctx, cred, src)
			if err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	remote := make(map[string]string, len(pending))
	for i, src := range pending {
		remote[src] = urls[i]
	}
	for i := range resolved {
		if url, ok := remote[resolved[i].Source]; ok {
			resolved[i].Source = url
		}
	}
	return resolved, len(pending), nil
}

func (o *Orchestrator) transition(out *Outcome, to domain.RenderState) {
	from := out.State
	if err := domain.ValidateRenderTransition(from, to); err != nil {
		// Programming error; keep the cycle moving but make it visible.
		o.logger.Error().Err(err).Str("project_id", out.ProjectID.String()).Msg("unexpected render transition")
	}
	out.State = to
	if o.observer != nil {
		o.observer(out.ProjectID, from, to)
	}
}

func (o *Orchestrator) acquire(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[id]; busy {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
}

// InFlight reports whether a render cycle is running for the project.
func (o *Orchestrator) InFlight(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, busy := o.inflight[id]
	return busy
}

// checkSources rejects renders that could never satisfy the remote-source
// invariant. It runs before any network call.
func checkSources(tracks []models.VideoTrack) error {
	if len(tracks) == 0 {
		return models.ErrEmptyTimeline
	}
	for _, t := range tracks {
		if t.Source == "" {
			if t.Kind == models.TextTrackKind {
				continue
			}
			return fmt.Errorf("%w: track %s has no source", models.ErrUnresolvedSource, t.ID)
		}
		if !models.IsLocalSource(t.Source) && !models.IsRemoteSource(t.Source) {
			return fmt.Errorf("%w: track %s: %q", models.ErrUnresolvedSource, t.ID, t.Source)
		}
	}
	return nil
}

func checkResolved(tracks []models.VideoTrack) error {
	for _, t := range tracks {
		if t.Source == "" && t.Kind == models.TextTrackKind {
			continue
		}
		if !models.IsRemoteSource(t.Source) {
			return fmt.Errorf("%w: track %s: %q", models.ErrUnresolvedSource, t.ID, t.Source)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
