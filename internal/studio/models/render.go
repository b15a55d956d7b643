package models

import (
	"time"

	"github.com/google/uuid"
)

type RenderRequest struct {
	ProjectID   uuid.UUID    `json:"project_id"`
	Tracks      []VideoTrack `json:"tracks"`
	Duration    float64      `json:"duration"`
	AspectRatio string       `json:"aspect_ratio"`
	Mode        ContentMode  `json:"mode"`
}

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type RenderResult struct {
	VideoURL     string  `json:"video_url"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	SizeBytes    int64   `json:"size_bytes,omitempty"`
}

// JobStatusReport is one answer of the render service to a status check.
type JobStatusReport struct {
	Status   JobStatus     `json:"status"`
	Progress float64       `json:"progress,omitempty"`
	Result   *RenderResult `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type RenderJob struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	Result      *RenderResult `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// Apply folds a status report into the job. Once the job is terminal further
// reports are ignored, so the status never reverts. It reports whether the
// job changed.
func (j *RenderJob) Apply(r JobStatusReport, at time.Time) bool {
	if j.Status.Terminal() {
		return false
	}
	switch r.Status {
	case JobCompleted:
		j.Status = JobCompleted
		j.Result = r.Result
	case JobFailed:
		j.Status = JobFailed
		j.Error = r.Error
	case JobPending, JobProcessing:
		if j.Status == r.Status {
			return false
		}
		j.Status = r.Status
		return true
	default:
		return false
	}
	j.FinishedAt = &at
	return true
}
