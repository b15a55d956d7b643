// Package project owns the VideoProject aggregate of one editing session and
// persists it on a fixed interval while the session is active.
package project

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/repository"
	"github.com/romariotrain/clip-studio/internal/studio/tracks"
)

const DefaultAutosaveInterval = 30 * time.Second

type Config struct {
	Store            repository.ProjectStore
	Tracks           *tracks.Store
	AutosaveInterval time.Duration
	AspectRatio      string
	Logger           zerolog.Logger
}

type Manager struct {
	store    repository.ProjectStore
	tracks   *tracks.Store
	interval time.Duration
	aspect   string
	logger   zerolog.Logger
	clock    func() time.Time
	idGen    func() uuid.UUID

	mu      sync.Mutex
	state   domain.LifecycleState
	project *models.VideoProject
	stop    context.CancelFunc
	done    chan struct{}

	// serializes autosave, SaveNow and the final save
	saveMu sync.Mutex
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("project store is required")
	}
	if cfg.Tracks == nil {
		return nil, fmt.Errorf("track store is required")
	}
	if cfg.AutosaveInterval < 0 {
		return nil, fmt.Errorf("autosave interval cannot be negative, got: %v", cfg.AutosaveInterval)
	}
	if cfg.AutosaveInterval == 0 {
		cfg.AutosaveInterval = DefaultAutosaveInterval
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = models.DefaultAspectRatio
	}

	return &Manager{
		store:    cfg.Store,
		tracks:   cfg.Tracks,
		interval: cfg.AutosaveInterval,
		aspect:   cfg.AspectRatio,
		logger:   cfg.Logger.With().Str("component", "project_manager").Logger(),
		clock:    time.Now,
		idGen:    uuid.New,
		state:    domain.Uninitialized,
	}, nil
}

// Start creates a fresh project for the session and begins autosaving it.
func (m *Manager) Start(ownerID string, mode models.ContentMode) (*models.VideoProject, error) {
	now := m.clock()
	p := &models.VideoProject{
		ID:          m.idGen(),
		OwnerID:     ownerID,
		Name:        DefaultName(now),
		Tracks:      []models.VideoTrack{},
		AspectRatio: m.aspect,
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.activate(p); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Resume continues editing a previously saved project.
func (m *Manager) Resume(p *models.VideoProject) error {
	if p == nil || p.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	return m.activate(p.Clone())
}

func (m *Manager) activate(p *models.VideoProject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := domain.ValidateLifecycleTransition(m.state, domain.Active); err != nil {
		return err
	}

	m.tracks.Replace(p.Tracks)
	p.Tracks = nil
	m.project = p
	m.state = domain.Active

	ctx, stop := context.WithCancel(context.Background())
	m.stop = stop
	m.done = make(chan struct{})
	go m.autosave(ctx, m.done)

	m.logger.Info().
		Str("project_id", p.ID.String()).
		Dur("interval", m.interval).
		Msg("editing session started")
	return nil
}

func (m *Manager) autosave(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.persist(ctx); err != nil {
				// Autosave never interrupts editing.
				m.logger.Error().Err(err).Msg("autosave failed")
			}
		}
	}
}

// SaveNow persists the current snapshot immediately.
func (m *Manager) SaveNow(ctx context.Context) error {
	return m.persist(ctx)
}

func (m *Manager) persist(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.mu.Lock()
	if m.state != domain.Active {
		state := m.state
		m.mu.Unlock()
		if state == domain.Ended {
			return models.ErrSessionEnded
		}
		return fmt.Errorf("%w: project is %s", domain.ErrInvalidTransition, state)
	}
	m.state = domain.Persisting
	m.project.UpdatedAt = m.clock()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	err := m.store.Save(ctx, snap)

	m.mu.Lock()
	if m.state == domain.Persisting {
		m.state = domain.Active
	}
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("save project %s: %w", snap.ID, err)
	}
	m.logger.Debug().
		Str("project_id", snap.ID.String()).
		Int("tracks", len(snap.Tracks)).
		Msg("project saved")
	return nil
}

// End stops autosaving, waits for an in-flight save, writes a final snapshot
// and closes the session. No save is started after End returns.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	if m.state == domain.Ended {
		m.mu.Unlock()
		return nil
	}
	if m.state == domain.Uninitialized {
		m.state = domain.Ended
		m.mu.Unlock()
		return nil
	}
	stop, done := m.stop, m.done
	m.mu.Unlock()

	stop()
	<-done

	err := m.persist(ctx)

	m.mu.Lock()
	m.state = domain.Ended
	id := m.project.ID
	m.mu.Unlock()

	m.logger.Info().Str("project_id", id.String()).Msg("editing session ended")
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	return nil
}

func (m *Manager) State() domain.LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the aggregate with the current tracks and duration.
func (m *Manager) Snapshot() (*models.VideoProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.project == nil {
		return nil, fmt.Errorf("%w: project not started", models.ErrNotFound)
	}
	return m.snapshotLocked(), nil
}

func (m *Manager) ID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.project == nil {
		return uuid.Nil
	}
	return m.project.ID
}

func (m *Manager) Rename(name string) error {
	if name == "" {
		return models.ErrInvalidArgument
	}
	return m.edit(func(p *models.VideoProject) { p.Name = name })
}

func (m *Manager) SetAspectRatio(ratio string) error {
	if ratio == "" {
		return models.ErrInvalidArgument
	}
	return m.edit(func(p *models.VideoProject) { p.AspectRatio = ratio })
}

func (m *Manager) edit(fn func(p *models.VideoProject)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case domain.Active, domain.Persisting:
		fn(m.project)
		return nil
	case domain.Ended:
		return models.ErrSessionEnded
	default:
		return fmt.Errorf("%w: project not started", models.ErrNotFound)
	}
}

func (m *Manager) snapshotLocked() *models.VideoProject {
	snap := m.project.Clone()
	snap.Tracks = m.tracks.Snapshot()
	snap.Duration = models.TimelineDuration(snap.Tracks)
	return snap
}

// DefaultName is the name given to a project created at t.
func DefaultName(t time.Time) string {
	return "Project " + t.Format("Jan 2, 2006")
}
