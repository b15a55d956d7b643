// Package service keeps the editing sessions of a running process. Each
// session owns a track store and a project manager; render, analysis and
// publish calls go through the session so they always see its current state.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/project"
	"github.com/romariotrain/clip-studio/internal/studio/render"
	"github.com/romariotrain/clip-studio/internal/studio/repository"
	"github.com/romariotrain/clip-studio/internal/studio/timeline"
	"github.com/romariotrain/clip-studio/internal/studio/tracks"
)

type Renderer interface {
	Render(ctx context.Context, in render.Input) (*render.Outcome, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, cred models.Credentials, videoURL string) models.ViralScore
}

type Publisher interface {
	Publish(ctx context.Context, cred models.Credentials, req models.PublishRequest) models.PublishResult
}

type Config struct {
	Projects         repository.ProjectStore
	Events           repository.EventStore
	Renderer         Renderer
	Analyzer         Analyzer
	Publisher        Publisher
	Catalog          *effects.Catalog
	Geometry         timeline.Geometry
	AutosaveInterval time.Duration
	AspectRatio      string
	Logger           zerolog.Logger
}

type Service struct {
	projects  repository.ProjectStore
	events    repository.EventStore
	renderer  Renderer
	analyzer  Analyzer
	publisher Publisher
	catalog   *effects.Catalog
	geometry  timeline.Geometry
	autosave  time.Duration
	aspect    string
	base      zerolog.Logger
	logger    zerolog.Logger
	clock     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func New(cfg Config) (*Service, error) {
	if cfg.Projects == nil {
		return nil, fmt.Errorf("project store is required")
	}
	if cfg.Renderer == nil || cfg.Analyzer == nil || cfg.Publisher == nil {
		return nil, fmt.Errorf("renderer, analyzer and publisher are required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = effects.DefaultCatalog()
	}
	if cfg.Geometry.Base == 0 {
		cfg.Geometry = timeline.NewGeometry(0, 0, 0)
	}

	return &Service{
		projects:  cfg.Projects,
		events:    cfg.Events,
		renderer:  cfg.Renderer,
		analyzer:  cfg.Analyzer,
		publisher: cfg.Publisher,
		catalog:   cfg.Catalog,
		geometry:  cfg.Geometry,
		autosave:  cfg.AutosaveInterval,
		aspect:    cfg.AspectRatio,
		base:      cfg.Logger,
		logger:    cfg.Logger.With().Str("component", "session_service").Logger(),
		clock:     time.Now,
		sessions:  make(map[uuid.UUID]*Session),
	}, nil
}

func (s *Service) Catalog() *effects.Catalog { return s.catalog }

// Open starts a session on a brand new project.
func (s *Service) Open(ctx context.Context, cred models.Credentials, mode models.ContentMode) (*Session, error) {
	if cred.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidArgument)
	}
	if mode == "" {
		mode = models.CreatorMode
	}
	if mode != models.CreatorMode && mode != models.BusinessMode {
		return nil, fmt.Errorf("%w: unknown mode %q", models.ErrInvalidArgument, mode)
	}

	sess, err := s.newSession(cred.UserID, mode)
	if err != nil {
		return nil, err
	}
	p, err := sess.manager.Start(cred.UserID, mode)
	if err != nil {
		sess.cancel()
		return nil, err
	}
	sess.id = p.ID

	// First save makes the project resumable right away; failures wait for autosave.
	if err := sess.manager.SaveNow(ctx); err != nil {
		s.logger.Warn().Err(err).Str("project_id", p.ID.String()).Msg("initial save failed")
	}

	s.mu.Lock()
	s.sessions[p.ID] = sess
	s.mu.Unlock()

	s.logger.Info().Str("project_id", p.ID.String()).Str("owner", cred.UserID).Str("mode", string(mode)).Msg("session opened")
	return sess, nil
}

// Resume reopens a saved project. An already open session for the project is
// returned as is.
func (s *Service) Resume(ctx context.Context, cred models.Credentials, id uuid.UUID) (*Session, error) {
	if id == uuid.Nil || cred.UserID == "" {
		return nil, models.ErrInvalidArgument
	}
	if sess, err := s.Get(id); err == nil {
		if !sess.OwnedBy(cred.UserID) {
			return nil, models.ErrNotFound
		}
		return sess, nil
	}

	p, err := s.projects.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != cred.UserID {
		return nil, models.ErrNotFound
	}

	sess, err := s.newSession(p.OwnerID, p.Mode)
	if err != nil {
		return nil, err
	}
	sess.id = p.ID
	if err := sess.manager.Resume(p); err != nil {
		sess.cancel()
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		// lost a race with another Resume
		_ = sess.close(ctx)
		return existing, nil
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info().Str("project_id", id.String()).Int("tracks", len(p.Tracks)).Msg("session resumed")
	return sess, nil
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// List returns the caller's saved projects, most recently edited first. A
// limit outside [1, MaxListLimit] falls back to DefaultListLimit.
func (s *Service) List(ctx context.Context, cred models.Credentials, limit int) ([]*models.VideoProject, error) {
	if cred.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidArgument)
	}
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}
	projects, err := s.projects.ListByOwner(ctx, cred.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return sess, nil
}

// Close ends a session: a running render is cancelled and the project is
// saved one last time.
func (s *Service) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return models.ErrNotFound
	}
	s.logger.Info().Str("project_id", id.String()).Msg("closing session")
	return sess.close(ctx)
}

// Shutdown closes every open session.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	clear(s.sessions)
	s.mu.Unlock()

	var errs []error
	for _, sess := range open {
		if err := sess.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sess.id, err))
		}
	}
	s.logger.Info().Int("sessions", len(open)).Msg("sessions closed")
	return errors.Join(errs...)
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ObserveRender records render progress on the session it belongs to. It
// matches render.Observer.
func (s *Service) ObserveRender(projectID uuid.UUID, _, to domain.RenderState) {
	sess, err := s.Get(projectID)
	if err != nil {
		return
	}
	sess.mu.Lock()
	sess.renderState = to
	sess.mu.Unlock()
}

func (s *Service) newSession(owner string, mode models.ContentMode) (*Session, error) {
	store := tracks.NewStore()
	manager, err := project.NewManager(project.Config{
		Store:            s.projects,
		Tracks:           store,
		AutosaveInterval: s.autosave,
		AspectRatio:      s.aspect,
		Logger:           s.base,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		svc:         s,
		owner:       owner,
		mode:        mode,
		tracks:      store,
		manager:     manager,
		ctx:         ctx,
		cancel:      cancel,
		renderState: domain.RenderIdle,
	}, nil
}
