package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

type ProjectRepo struct {
	db *sqlx.DB
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// projectRow carries the tracks column as raw JSONB next to the scalar columns.
type projectRow struct {
	models.VideoProject
	TracksJSON []byte `db:"tracks"`
}

func toRow(p *models.VideoProject) (projectRow, error) {
	tracks := p.Tracks
	if tracks == nil {
		tracks = []models.VideoTrack{}
	}
	raw, err := json.Marshal(tracks)
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal tracks: %w", err)
	}
	return projectRow{VideoProject: *p, TracksJSON: raw}, nil
}

func (r projectRow) toProject() (*models.VideoProject, error) {
	p := r.VideoProject
	if len(r.TracksJSON) > 0 {
		if err := json.Unmarshal(r.TracksJSON, &p.Tracks); err != nil {
			return nil, fmt.Errorf("unmarshal tracks of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// Save upserts the project. created_at of an existing row is never rewritten.
func (r *ProjectRepo) Save(ctx context.Context, p *models.VideoProject) error {
	if p == nil || p.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}

	const q = `
		INSERT INTO projects (id, owner_id, name, tracks, duration, aspect_ratio, mode, created_at, updated_at)
		VALUES (:id, :owner_id, :name, :tracks, :duration, :aspect_ratio, :mode, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name         = EXCLUDED.name,
			tracks       = EXCLUDED.tracks,
			duration     = EXCLUDED.duration,
			aspect_ratio = EXCLUDED.aspect_ratio,
			mode         = EXCLUDED.mode,
			updated_at   = EXCLUDED.updated_at
	`
	row, err := toRow(p)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("project save: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Load(ctx context.Context, id uuid.UUID) (*models.VideoProject, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}

	const q = `
		SELECT id, owner_id, name, tracks, duration, aspect_ratio, mode, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var row projectRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("project load: %w", err)
	}
	return row.toProject()
}

// ListByOwner returns the owner's projects, most recently edited first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.VideoProject, error) {
	const q = `
		SELECT id, owner_id, name, tracks, duration, aspect_ratio, mode, created_at, updated_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, q, ownerID, limit); err != nil {
		return nil, fmt.Errorf("project list: %w", err)
	}

	out := make([]*models.VideoProject, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProject()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
