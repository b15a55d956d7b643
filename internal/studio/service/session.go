package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/project"
	"github.com/romariotrain/clip-studio/internal/studio/render"
	"github.com/romariotrain/clip-studio/internal/studio/timeline"
	"github.com/romariotrain/clip-studio/internal/studio/tracks"
)

// RenderSummary is what a session remembers of its latest finished render.
type RenderSummary struct {
	State        domain.RenderState `json:"state"`
	JobID        string             `json:"job_id,omitempty"`
	VideoURL     string             `json:"video_url,omitempty"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	Score        *int               `json:"score,omitempty"`
	Attempts     int                `json:"attempts"`
	Error        string             `json:"error,omitempty"`
	FinishedAt   time.Time          `json:"finished_at"`
}

type Status struct {
	Project    *models.VideoProject  `json:"project"`
	Lifecycle  domain.LifecycleState `json:"lifecycle"`
	Render     domain.RenderState    `json:"render_state"`
	Selected   *uuid.UUID            `json:"selected_track,omitempty"`
	LastRender *RenderSummary        `json:"last_render,omitempty"`
	Analysis   *models.ViralScore    `json:"analysis,omitempty"`
}

type Session struct {
	svc     *Service
	id      uuid.UUID
	owner   string
	mode    models.ContentMode
	tracks  *tracks.Store
	manager *project.Manager

	// cancelled on close; background renders run under it
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	closing     bool
	renderState domain.RenderState
	background  bool
	last        *RenderSummary
	analysis    *models.ViralScore
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Mode() models.ContentMode { return s.mode }

func (s *Session) OwnedBy(userID string) bool {
	return userID != "" && s.owner == userID
}

func (s *Session) alive() error {
	if s.manager.State() == domain.Ended {
		return models.ErrSessionEnded
	}
	return nil
}

func (s *Session) Snapshot() (*models.VideoProject, error) {
	return s.manager.Snapshot()
}

func (s *Session) Status() (Status, error) {
	snap, err := s.manager.Snapshot()
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Project:   snap,
		Lifecycle: s.manager.State(),
	}
	if id, ok := s.tracks.Selected(); ok {
		st.Selected = &id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.Render = s.renderState
	if s.last != nil {
		last := *s.last
		st.LastRender = &last
	}
	if s.analysis != nil {
		a := *s.analysis
		st.Analysis = &a
	}
	return st, nil
}

func (s *Session) Rename(name string) error {
	return s.manager.Rename(name)
}

func (s *Session) SetAspectRatio(ratio string) error {
	return s.manager.SetAspectRatio(ratio)
}

// AddTrack validates d, appends it and selects the new track.
func (s *Session) AddTrack(d tracks.Draft) (models.VideoTrack, error) {
	if err := s.alive(); err != nil {
		return models.VideoTrack{}, err
	}
	if err := tracks.ValidateDraft(d); err != nil {
		return models.VideoTrack{}, err
	}
	id := s.tracks.Add(d)
	t, _ := s.tracks.Get(id)
	return t, nil
}

func (s *Session) UpdateTrack(id uuid.UUID, p tracks.Patch) (models.VideoTrack, error) {
	if err := s.alive(); err != nil {
		return models.VideoTrack{}, err
	}
	if err := tracks.ValidatePatch(p); err != nil {
		return models.VideoTrack{}, err
	}
	if p.Effects != nil {
		for _, e := range *p.Effects {
			if err := s.svc.catalog.Validate(e); err != nil {
				return models.VideoTrack{}, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
			}
		}
	}
	if !s.tracks.Update(id, p) {
		return models.VideoTrack{}, fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}
	t, _ := s.tracks.Get(id)
	return t, nil
}

func (s *Session) RemoveTrack(id uuid.UUID) error {
	if err := s.alive(); err != nil {
		return err
	}
	if !s.tracks.Remove(id) {
		return fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// SelectTrack makes id the active track. uuid.Nil clears the selection.
func (s *Session) SelectTrack(id uuid.UUID) error {
	if err := s.alive(); err != nil {
		return err
	}
	if !s.tracks.Select(id) {
		return fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// MoveTrack shifts a track by a horizontal drag of deltaPx pixels at the
// given zoom. A drag past the start of the timeline lands at zero.
func (s *Session) MoveTrack(id uuid.UUID, deltaPx, zoom float64) (models.VideoTrack, error) {
	if err := s.alive(); err != nil {
		return models.VideoTrack{}, err
	}
	t, ok := s.tracks.Get(id)
	if !ok {
		return models.VideoTrack{}, fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}

	start := max(0, timeline.DragTo(t.StartTime, deltaPx, s.svc.geometry.Scale(zoom)))
	if !s.tracks.Update(id, tracks.Patch{StartTime: &start}) {
		return models.VideoTrack{}, fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}
	t, _ = s.tracks.Get(id)
	return t, nil
}

// ApplyEffect builds spec against the catalog and appends it to the track.
// uuid.Nil targets the selected track.
func (s *Session) ApplyEffect(id uuid.UUID, spec effects.Spec) (models.VideoTrack, error) {
	if err := s.alive(); err != nil {
		return models.VideoTrack{}, err
	}
	if id == uuid.Nil {
		sel, ok := s.tracks.Selected()
		if !ok {
			return models.VideoTrack{}, fmt.Errorf("%w: no track selected", models.ErrInvalidArgument)
		}
		id = sel
	}
	e, err := s.svc.catalog.Build(spec)
	if err != nil {
		return models.VideoTrack{}, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	if !s.tracks.ApplyEffect(id, e) {
		return models.VideoTrack{}, fmt.Errorf("track %s: %w", id, models.ErrNotFound)
	}
	t, _ := s.tracks.Get(id)
	return t, nil
}

func (s *Session) RemoveEffect(id uuid.UUID, index int) (models.VideoTrack, error) {
	if err := s.alive(); err != nil {
		return models.VideoTrack{}, err
	}
	if !s.tracks.RemoveEffect(id, index) {
		return models.VideoTrack{}, fmt.Errorf("track %s effect %d: %w", id, index, models.ErrNotFound)
	}
	t, _ := s.tracks.Get(id)
	return t, nil
}

// Render runs a full render cycle on a snapshot of the session and waits for
// it to finish.
func (s *Session) Render(ctx context.Context, cred models.Credentials) (*render.Outcome, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	snap, err := s.manager.Snapshot()
	if err != nil {
		return nil, err
	}

	out, err := s.svc.renderer.Render(ctx, render.Input{Credentials: cred, Project: snap, Mode: s.mode})
	if out != nil && out.State.Terminal() {
		s.finishRender(ctx, out)
	}
	return out, err
}

// StartRender runs Render in the background. It is cancelled when the session
// closes.
func (s *Session) StartRender(cred models.Credentials) error {
	if err := s.alive(); err != nil {
		return err
	}
	snap, err := s.manager.Snapshot()
	if err != nil {
		return err
	}
	if len(snap.Tracks) == 0 {
		return models.ErrEmptyTimeline
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return models.ErrSessionEnded
	}
	if s.background || s.renderState == domain.RenderUploading ||
		s.renderState == domain.RenderSubmitting || s.renderState == domain.RenderPolling {
		s.mu.Unlock()
		return models.ErrRenderInProgress
	}
	s.background = true
	// Add under mu so close cannot start waiting between the check and the Add.
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.background = false
			s.mu.Unlock()
		}()
		if _, err := s.Render(s.ctx, cred); err != nil {
			s.svc.logger.Warn().Err(err).Str("project_id", s.id.String()).Msg("background render ended with error")
		}
	}()
	return nil
}

func (s *Session) finishRender(ctx context.Context, out *render.Outcome) {
	sum := &RenderSummary{
		State:      out.State,
		Score:      out.Score,
		Attempts:   out.Attempts,
		FinishedAt: s.svc.clock(),
	}
	if out.Job != nil {
		sum.JobID = out.Job.ID
		if out.Job.Result != nil {
			sum.VideoURL = out.Job.Result.VideoURL
			sum.ThumbnailURL = out.Job.Result.ThumbnailURL
		}
	}
	if out.Err != nil {
		sum.Error = out.Err.Error()
	}

	s.mu.Lock()
	s.renderState = out.State
	if out.State == domain.RenderSucceeded {
		s.last = sum
		s.analysis = nil
	} else if s.last == nil || s.last.State != domain.RenderSucceeded {
		s.last = sum
	}
	s.mu.Unlock()

	if s.svc.events == nil {
		return
	}
	ev := models.NewRenderFinished(s.id, sum.JobID, string(out.State), sum.VideoURL, out.Score, sum.FinishedAt)
	if err := s.svc.events.Append(context.WithoutCancel(ctx), ev); err != nil {
		s.svc.logger.Warn().Err(err).Str("project_id", s.id.String()).Msg("render event not recorded")
	}
}

func (s *Session) lastVideo() (string, *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.State != domain.RenderSucceeded {
		return "", nil
	}
	return s.last.VideoURL, s.last.Score
}

// Analyze returns the detailed viral analysis of videoURL, or of the last
// successful render when videoURL is empty.
func (s *Session) Analyze(ctx context.Context, cred models.Credentials, videoURL string) (models.ViralScore, error) {
	if videoURL == "" {
		videoURL, _ = s.lastVideo()
	}
	if videoURL == "" {
		return models.ViralScore{}, fmt.Errorf("%w: nothing rendered yet", models.ErrInvalidArgument)
	}

	v := s.svc.analyzer.Analyze(ctx, cred, videoURL)
	s.mu.Lock()
	s.analysis = &v
	s.mu.Unlock()
	return v, nil
}

type PublishInput struct {
	Platform string
	Caption  string
	VideoURL string
}

// Publish sends the last successful render (or in.VideoURL) to a platform.
// Failures are reported in the result.
func (s *Session) Publish(ctx context.Context, cred models.Credentials, in PublishInput) models.PublishResult {
	videoURL, score := s.lastVideo()
	if in.VideoURL != "" {
		videoURL = in.VideoURL
	}
	return s.svc.publisher.Publish(ctx, cred, models.PublishRequest{
		ProjectID:  s.id,
		PlatformID: in.Platform,
		VideoURL:   videoURL,
		Caption:    in.Caption,
		Score:      score,
	})
}

func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	err := s.manager.End(ctx)
	if errors.Is(err, models.ErrSessionEnded) {
		return nil
	}
	return err
}
