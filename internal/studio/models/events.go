package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// RenderFinished is emitted once per render cycle that reached a terminal state.
type RenderFinished struct {
	eventID    uuid.UUID
	projectID  uuid.UUID
	jobID      string
	state      string
	videoURL   string
	score      *int
	occurredAt time.Time
}

func NewRenderFinished(projectID uuid.UUID, jobID, state, videoURL string, score *int, at time.Time) *RenderFinished {
	return &RenderFinished{
		eventID:    uuid.New(),
		projectID:  projectID,
		jobID:      jobID,
		state:      state,
		videoURL:   videoURL,
		score:      score,
		occurredAt: at,
	}
}

func (e *RenderFinished) EventID() uuid.UUID     { return e.eventID }
func (e *RenderFinished) EventType() string      { return "RenderFinished" }
func (e *RenderFinished) AggregateID() uuid.UUID { return e.projectID }
func (e *RenderFinished) OccurredAt() time.Time  { return e.occurredAt }

func (e *RenderFinished) JobID() string    { return e.jobID }
func (e *RenderFinished) State() string    { return e.state }
func (e *RenderFinished) VideoURL() string { return e.videoURL }

func (e *RenderFinished) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		ProjectID  uuid.UUID `json:"project_id"`
		JobID      string    `json:"job_id,omitempty"`
		State      string    `json:"state"`
		VideoURL   string    `json:"video_url,omitempty"`
		Score      *int      `json:"score,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		ProjectID:  e.projectID,
		JobID:      e.jobID,
		State:      e.state,
		VideoURL:   e.videoURL,
		Score:      e.score,
		OccurredAt: e.occurredAt,
	})
}

// ProjectPublished records one publish attempt, successful or not.
type ProjectPublished struct {
	eventID    uuid.UUID
	projectID  uuid.UUID
	platform   string
	success    bool
	url        string
	occurredAt time.Time
}

func NewProjectPublished(projectID uuid.UUID, platform string, success bool, url string, at time.Time) *ProjectPublished {
	return &ProjectPublished{
		eventID:    uuid.New(),
		projectID:  projectID,
		platform:   platform,
		success:    success,
		url:        url,
		occurredAt: at,
	}
}

func (e *ProjectPublished) EventID() uuid.UUID     { return e.eventID }
func (e *ProjectPublished) EventType() string      { return "ProjectPublished" }
func (e *ProjectPublished) AggregateID() uuid.UUID { return e.projectID }
func (e *ProjectPublished) OccurredAt() time.Time  { return e.occurredAt }

func (e *ProjectPublished) Platform() string { return e.platform }
func (e *ProjectPublished) Success() bool    { return e.success }

func (e *ProjectPublished) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		ProjectID  uuid.UUID `json:"project_id"`
		Platform   string    `json:"platform"`
		Success    bool      `json:"success"`
		URL        string    `json:"url,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		ProjectID:  e.projectID,
		Platform:   e.platform,
		Success:    e.success,
		URL:        e.url,
		OccurredAt: e.occurredAt,
	})
}
