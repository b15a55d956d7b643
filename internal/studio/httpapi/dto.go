package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/render"
)

type CreateProjectRequest struct {
	Mode models.ContentMode `json:"mode"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	AspectRatio *string `json:"aspect_ratio"`
}

type MoveTrackRequest struct {
	DeltaPx float64 `json:"delta_px"`
	Zoom    float64 `json:"zoom"`
}

// SelectTrackRequest clears the selection when TrackID is null.
type SelectTrackRequest struct {
	TrackID *uuid.UUID `json:"track_id"`
}

type AnalysisRequest struct {
	VideoURL string `json:"video_url"`
}

type PublishRequest struct {
	Platform string `json:"platform"`
	Caption  string `json:"caption"`
	VideoURL string `json:"video_url"`
}

type RenderResponse struct {
	ProjectID uuid.UUID          `json:"project_id"`
	State     domain.RenderState `json:"state"`
	JobID     string             `json:"job_id,omitempty"`
	VideoURL  string             `json:"video_url,omitempty"`
	Score     *int               `json:"score,omitempty"`
	Attempts  int                `json:"attempts"`
	Uploaded  int                `json:"uploaded"`
	Error     string             `json:"error,omitempty"`
}

type RenderAcceptedResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

func toRenderResponse(out *render.Outcome) RenderResponse {
	resp := RenderResponse{
		ProjectID: out.ProjectID,
		State:     out.State,
		Score:     out.Score,
		Attempts:  out.Attempts,
		Uploaded:  out.Uploaded,
	}
	if out.Job != nil {
		resp.JobID = out.Job.ID
		if out.Job.Result != nil {
			resp.VideoURL = out.Job.Result.VideoURL
		}
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}
