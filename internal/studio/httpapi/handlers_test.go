package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-studio/internal/studio/domain"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/render"
	"github.com/romariotrain/clip-studio/internal/studio/repository"
	"github.com/romariotrain/clip-studio/internal/studio/service"
)

type api struct {
	router    http.Handler
	svc       *service.Service
	renderer  *RendererMock
	analyzer  *AnalyzerMock
	publisher *PublisherMock
}

func newAPI(t *testing.T) *api {
	t.Helper()
	a := &api{
		renderer:  &RendererMock{},
		analyzer:  &AnalyzerMock{},
		publisher: &PublisherMock{},
	}
	svc, err := service.New(service.Config{
		Projects:         repository.NewMemoryRepository(),
		Events:           repository.NewMemoryEvents(),
		Renderer:         a.renderer,
		Analyzer:         a.analyzer,
		Publisher:        a.publisher,
		AutosaveInterval: time.Hour,
		Logger:           zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	a.svc = svc
	a.router = NewRouter(New(svc, zerolog.Nop()))
	return a
}

func (a *api) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("Authorization", "Bearer token-"+user)
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *api) createProject(t *testing.T, user string) uuid.UUID {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/projects", user, CreateProjectRequest{Mode: models.CreatorMode})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decode[service.Status](t, rec)
	return st.Project.ID
}

func (a *api) addTrack(t *testing.T, user string, id uuid.UUID, body map[string]any) models.VideoTrack {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/tracks", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.VideoTrack](t, rec)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListEffects(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/effects", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	defs := decode[[]map[string]any](t, rec)
	assert.Len(t, defs, 6)
}

func TestCredentialsRequired(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/projects", nil)
	req.Header.Set("Authorization", "Basic abc")
	req.Header.Set("X-User-ID", "alice")
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProjects(t *testing.T) {
	a := newAPI(t)
	first := a.createProject(t, "alice")
	second := a.createProject(t, "alice")
	a.createProject(t, "bob")

	rec := a.do(t, http.MethodGet, "/projects", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	projects := decode[[]models.VideoProject](t, rec)
	require.Len(t, projects, 2)
	ids := []uuid.UUID{projects[0].ID, projects[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first, second}, ids)

	rec = a.do(t, http.MethodGet, "/projects?limit=1", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.VideoProject](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/projects?limit=abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")
	base := "/projects/" + id.String()

	rec := a.do(t, http.MethodGet, base, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[service.Status](t, rec)
	assert.Equal(t, domain.Active, st.Lifecycle)
	assert.Equal(t, "9:16", st.Project.AspectRatio)

	rec = a.do(t, http.MethodGet, base, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/projects/not-a-uuid", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPatch, base, "alice", map[string]any{"name": "Launch teaser", "aspect_ratio": "1:1"})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[service.Status](t, rec)
	assert.Equal(t, "Launch teaser", st.Project.Name)
	assert.Equal(t, "1:1", st.Project.AspectRatio)

	rec = a.do(t, http.MethodPatch, base, "alice", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, base+"/session", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, base, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/resume", "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/resume", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[service.Status](t, rec)
	assert.Equal(t, "Launch teaser", st.Project.Name)
}

func TestCreateProject_InvalidMode(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/projects", "alice", map[string]string{"mode": "influencer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/projects", "alice", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTrackEditing(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")
	base := "/projects/" + id.String()

	rec := a.do(t, http.MethodPost, base+"/tracks", "alice", map[string]any{"kind": "video", "duration": 0.01})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/tracks", "alice", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tr := a.addTrack(t, "alice", id, map[string]any{
		"kind": "video", "source": "file:///clips/a.mp4", "start_time": 1, "duration": 4,
	})
	trackPath := base + "/tracks/" + tr.ID.String()

	rec = a.do(t, http.MethodPatch, trackPath, "alice", map[string]any{"opacity": 0.5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.5, decode[models.VideoTrack](t, rec).Opacity)

	rec = a.do(t, http.MethodPatch, trackPath, "alice", map[string]any{"volume": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPatch, base+"/tracks/"+uuid.NewString(), "alice", map[string]any{"opacity": 0.5})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, trackPath+"/move", "alice", MoveTrackRequest{DeltaPx: 100, Zoom: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2.0, decode[models.VideoTrack](t, rec).StartTime, 1e-9)

	rec = a.do(t, http.MethodPost, trackPath+"/move", "alice", MoveTrackRequest{DeltaPx: -5000, Zoom: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode[models.VideoTrack](t, rec).StartTime)

	rec = a.do(t, http.MethodPost, trackPath+"/effects", "alice", map[string]any{"kind": "zoom", "intensity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[models.VideoTrack](t, rec).Effects, 1)

	rec = a.do(t, http.MethodPost, trackPath+"/effects", "alice", map[string]any{"kind": "zoom", "intensity": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, trackPath+"/effects", "alice", map[string]any{"kind": "glitter"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, trackPath+"/effects/0", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.VideoTrack](t, rec).Effects)

	rec = a.do(t, http.MethodDelete, trackPath+"/effects/x", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, base+"/selection", "alice", SelectTrackRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[service.Status](t, rec).Selected)

	rec = a.do(t, http.MethodPut, base+"/selection", "alice", SelectTrackRequest{TrackID: &tr.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[service.Status](t, rec)
	require.NotNil(t, st.Selected)
	assert.Equal(t, tr.ID, *st.Selected)

	rec = a.do(t, http.MethodDelete, trackPath, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodDelete, trackPath, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRender_EmptyTimeline(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")

	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/render", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	a.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestRender_WaitThenAnalyzeAndPublish(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")
	base := "/projects/" + id.String()
	a.addTrack(t, "alice", id, map[string]any{"kind": "video", "source": "https://cdn/a.mp4", "duration": 3})

	rec := a.do(t, http.MethodPost, base+"/analysis", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	score := 74
	a.renderer.On("Render", mock.Anything, mock.Anything).Return(&render.Outcome{
		ProjectID: id,
		State:     domain.RenderSucceeded,
		Job: &models.RenderJob{
			ID:     "job-9",
			Status: models.JobCompleted,
			Result: &models.RenderResult{VideoURL: "https://cdn/out.mp4"},
		},
		Score:    &score,
		Attempts: 4,
	}, nil).Once()

	rec = a.do(t, http.MethodPost, base+"/render?wait=true", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[RenderResponse](t, rec)
	assert.Equal(t, domain.RenderSucceeded, resp.State)
	assert.Equal(t, "https://cdn/out.mp4", resp.VideoURL)
	assert.Equal(t, 74, *resp.Score)
	assert.Equal(t, "job-9", resp.JobID)

	a.analyzer.On("Analyze", mock.Anything, mock.Anything, "https://cdn/out.mp4").
		Return(models.ViralScore{Score: 74, Category: models.CategoryHigh}).Once()
	rec = a.do(t, http.MethodPost, base+"/analysis", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CategoryHigh, decode[models.ViralScore](t, rec).Category)

	a.publisher.On("Publish", mock.Anything, models.Credentials{UserID: "alice", Token: "token-alice"}, mock.MatchedBy(func(r models.PublishRequest) bool {
		return r.VideoURL == "https://cdn/out.mp4" && r.PlatformID == "youtube"
	})).Return(models.PublishResult{Success: true, URL: "https://youtube.com/shorts/1", Platform: "youtube"}).Once()
	rec = a.do(t, http.MethodPost, base+"/publish", "alice", PublishRequest{Platform: "youtube"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.PublishResult](t, rec).Success)

	a.renderer.AssertExpectations(t)
	a.analyzer.AssertExpectations(t)
	a.publisher.AssertExpectations(t)
}

func TestRender_WaitTimedOut(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")
	a.addTrack(t, "alice", id, map[string]any{"kind": "video", "source": "https://cdn/a.mp4", "duration": 3})

	a.renderer.On("Render", mock.Anything, mock.Anything).Return(&render.Outcome{
		ProjectID: id,
		State:     domain.RenderTimedOut,
		Job:       &models.RenderJob{ID: "job-slow", Status: models.JobProcessing},
		Attempts:  60,
		Err:       models.ErrRenderTimedOut,
	}, models.ErrRenderTimedOut).Once()

	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/render?wait=1", "alice", nil)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	resp := decode[RenderResponse](t, rec)
	assert.Equal(t, domain.RenderTimedOut, resp.State)
	assert.Equal(t, 60, resp.Attempts)
	assert.NotEmpty(t, resp.Error)
}

func TestRender_Async(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")
	a.addTrack(t, "alice", id, map[string]any{"kind": "video", "source": "https://cdn/a.mp4", "duration": 3})

	done := make(chan struct{})
	a.renderer.On("Render", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(done) }).
		Return(&render.Outcome{ProjectID: id, State: domain.RenderFailed, Err: models.ErrRenderFailed}, models.ErrRenderFailed).Once()

	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/render", "alice", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "rendering", decode[RenderAcceptedResponse](t, rec).Status)

	<-done
	require.Eventually(t, func() bool {
		rec := a.do(t, http.MethodGet, "/projects/"+id.String(), "alice", nil)
		st := decode[service.Status](t, rec)
		return st.LastRender != nil && st.LastRender.State == domain.RenderFailed
	}, time.Second, 5*time.Millisecond)
}

func TestPublish_ValidationFailureIs400(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")

	a.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(models.PublishResult{
		Platform: "tiktok",
		Failure:  &models.PublishFailure{Kind: models.FailureValidation, Message: "video_url failed required"},
	}).Once()

	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/publish", "alice", PublishRequest{Platform: "tiktok"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode[models.PublishResult](t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, models.FailureValidation, res.Failure.Kind)
}

func TestPublish_PlatformFailureIs200(t *testing.T) {
	a := newAPI(t)
	id := a.createProject(t, "alice")

	a.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(models.PublishResult{
		Platform: "tiktok",
		Failure:  &models.PublishFailure{Kind: models.FailureServer, Message: "503", Retryable: true},
	}).Once()

	rec := a.do(t, http.MethodPost, "/projects/"+id.String()+"/publish", "alice", PublishRequest{Platform: "tiktok", VideoURL: "https://cdn/x.mp4"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[models.PublishResult](t, rec)
	assert.False(t, res.Success)
	assert.True(t, res.Failure.Retryable)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrInvalidArgument, http.StatusBadRequest},
		{models.ErrEmptyTimeline, http.StatusBadRequest},
		{models.ErrRenderInProgress, http.StatusConflict},
		{models.ErrSessionEnded, http.StatusGone},
		{models.ErrRenderTimedOut, http.StatusGatewayTimeout},
		{models.ErrRenderFailed, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, _ := statusFor(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
