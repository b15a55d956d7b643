package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-studio/internal/studio/effects"
)

func TestTimelineDuration(t *testing.T) {
	assert.Equal(t, 0.0, TimelineDuration(nil))

	tracks := []VideoTrack{
		{StartTime: 0, Duration: 4},
		{StartTime: 3, Duration: 5.5},
		{StartTime: 1, Duration: 1},
	}
	assert.Equal(t, 8.5, TimelineDuration(tracks))
}

func TestSourceClassification(t *testing.T) {
	tests := []struct {
		src    string
		local  bool
		remote bool
	}{
		{src: "file:///data/clip.mp4", local: true},
		{src: "content://media/external/video/12", local: true},
		{src: "ph://ABCD-1234", local: true},
		{src: "assets-library://asset/asset.mov?id=1", local: true},
		{src: "/var/mobile/clip.mov", local: true},
		{src: "https://cdn.example.com/a.mp4", remote: true},
		{src: "http://cdn.example.com/a.mp4", remote: true},
		{src: "s3://bucket/a.mp4", remote: true},
		{src: "gs://bucket/clips/a.mp4", remote: true},
		{src: "clips/a.mp4"},
		{src: "mailto:someone@example.com"},
		{src: ""},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.local, IsLocalSource(tt.src))
			assert.Equal(t, tt.remote, IsRemoteSource(tt.src))
		})
	}
}

func TestProjectClone_IsDeep(t *testing.T) {
	p := &VideoProject{
		ID: uuid.New(),
		Tracks: []VideoTrack{
			{ID: uuid.New(), Effects: effects.List{effects.Fade{Duration: 1}}},
		},
	}

	cp := p.Clone()
	cp.Tracks[0].Effects[0] = effects.Blur{Intensity: 0.1}
	cp.Tracks[0].StartTime = 9

	assert.Equal(t, effects.Fade{Duration: 1}, p.Tracks[0].Effects[0])
	assert.Equal(t, 0.0, p.Tracks[0].StartTime)
}

func TestRenderJob_ApplyIsMonotonic(t *testing.T) {
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	job := &RenderJob{ID: "job-1", Status: JobPending}
	assert.True(t, job.Apply(JobStatusReport{Status: JobProcessing}, at))
	assert.False(t, job.Apply(JobStatusReport{Status: JobProcessing}, at))

	result := &RenderResult{VideoURL: "https://cdn.example.com/out.mp4"}
	require.True(t, job.Apply(JobStatusReport{Status: JobCompleted, Result: result}, at))
	require.Equal(t, JobCompleted, job.Status)
	require.Equal(t, &at, job.FinishedAt)

	// Terminal jobs never revert.
	for _, s := range []JobStatus{JobPending, JobProcessing, JobFailed} {
		assert.False(t, job.Apply(JobStatusReport{Status: s, Error: "boom"}, at))
		assert.Equal(t, JobCompleted, job.Status)
		assert.Empty(t, job.Error)
	}

	failed := &RenderJob{ID: "job-2", Status: JobPending}
	require.True(t, failed.Apply(JobStatusReport{Status: JobFailed, Error: "codec"}, at))
	assert.False(t, failed.Apply(JobStatusReport{Status: JobCompleted, Result: result}, at))
	assert.Equal(t, JobFailed, failed.Status)
	assert.Nil(t, failed.Result)

	unknown := &RenderJob{Status: JobPending}
	assert.False(t, unknown.Apply(JobStatusReport{Status: "weird"}, at))
}

func TestViralScore_Normalize(t *testing.T) {
	v := ViralScore{
		Score:          140,
		Breakdown:      ScoreBreakdown{Hook: -4, Pacing: 101, Visuals: 50, Audio: 0, Trend: 100},
		PredictedViews: -1,
	}
	v.Normalize()

	assert.Equal(t, 100, v.Score)
	assert.Equal(t, CategoryViral, v.Category)
	assert.Equal(t, ScoreBreakdown{Hook: 0, Pacing: 100, Visuals: 50, Audio: 0, Trend: 100}, v.Breakdown)
	assert.Equal(t, 0, v.PredictedViews)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryLow, CategoryFor(39))
	assert.Equal(t, CategoryModerate, CategoryFor(40))
	assert.Equal(t, CategoryModerate, CategoryFor(59))
	assert.Equal(t, CategoryHigh, CategoryFor(60))
	assert.Equal(t, CategoryHigh, CategoryFor(79))
	assert.Equal(t, CategoryViral, CategoryFor(80))
}

func TestRenderFinished_JSON(t *testing.T) {
	projectID := uuid.New()
	score := 64
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	e := NewRenderFinished(projectID, "job-1", "succeeded", "https://cdn.example.com/out.mp4", &score, at)
	assert.Equal(t, "RenderFinished", e.EventType())
	assert.Equal(t, projectID, e.AggregateID())

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, projectID.String(), got["project_id"])
	assert.Equal(t, "succeeded", got["state"])
	assert.Equal(t, float64(64), got["score"])
}
