package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
	"github.com/romariotrain/clip-studio/internal/studio/service"
	"github.com/romariotrain/clip-studio/internal/studio/tracks"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc    *service.Service
	logger zerolog.Logger
}

func New(svc *service.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With().Str("component", "httpapi").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.svc.Len()})
}

func (h *Handler) ListEffects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Catalog().Definitions())
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentials(w, r)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.svc.Open(r.Context(), cred, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeStatus(w, http.StatusCreated, sess)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentials(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorJSON(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	projects, err := h.svc.List(r.Context(), cred, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) ResumeProject(w http.ResponseWriter, r *http.Request) {
	cred, ok := credentials(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sess, err := h.svc.Resume(r.Context(), cred, id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeStatus(w, http.StatusOK, sess)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeStatus(w, http.StatusOK, sess)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		if err := sess.Rename(*req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.AspectRatio != nil {
		if err := sess.SetAspectRatio(*req.AspectRatio); err != nil {
			writeError(w, err)
			return
		}
	}
	h.writeStatus(w, http.StatusOK, sess)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.svc.Close(r.Context(), sess.ID()); err != nil {
		h.logger.Error().Err(err).Str("project_id", sess.ID().String()).Msg("close session")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var d tracks.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	t, err := sess.AddTrack(d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	trackID, ok := pathID(w, r, "trackID")
	if !ok {
		return
	}
	var p tracks.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	t, err := sess.UpdateTrack(trackID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	trackID, ok := pathID(w, r, "trackID")
	if !ok {
		return
	}
	if err := sess.RemoveTrack(trackID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveTrack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	trackID, ok := pathID(w, r, "trackID")
	if !ok {
		return
	}
	req := MoveTrackRequest{Zoom: 1}
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := sess.MoveTrack(trackID, req.DeltaPx, req.Zoom)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) ApplyEffect(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	trackID, ok := pathID(w, r, "trackID")
	if !ok {
		return
	}
	var spec effects.Spec
	if !decodeJSON(w, r, &spec) {
		return
	}
	t, err := sess.ApplyEffect(trackID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) RemoveEffect(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	trackID, ok := pathID(w, r, "trackID")
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid effect index")
		return
	}
	t, err := sess.RemoveEffect(trackID, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) SelectTrack(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectTrackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := uuid.Nil
	if req.TrackID != nil {
		id = *req.TrackID
	}
	if err := sess.SelectTrack(id); err != nil {
		writeError(w, err)
		return
	}
	h.writeStatus(w, http.StatusOK, sess)
}

// Render starts a render in the background and answers 202. With ?wait=true
// it blocks until the render finishes and returns its outcome.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	sess, cred, ok := h.session(w, r)
	if !ok {
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		if err := sess.StartRender(cred); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, RenderAcceptedResponse{
			ProjectID: sess.ID(),
			Status:    "rendering",
			StartedAt: time.Now().UTC(),
		})
		return
	}

	out, err := sess.Render(r.Context(), cred)
	if out == nil {
		writeError(w, err)
		return
	}
	if err != nil && !out.State.Terminal() {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status, _ = statusFor(err)
	}
	writeJSON(w, status, toRenderResponse(out))
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	sess, cred, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AnalysisRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	v, err := sess.Analyze(r.Context(), cred, req.VideoURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Publish always answers with the publish result; only requests that never
// reached the platform get a 4xx.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	sess, cred, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res := sess.Publish(r.Context(), cred, service.PublishInput{
		Platform: req.Platform,
		Caption:  req.Caption,
		VideoURL: req.VideoURL,
	})
	status := http.StatusOK
	if res.Failure != nil && res.Failure.Kind == models.FailureValidation {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

// session resolves the caller and the open session addressed by {id}. A
// session owned by someone else is reported as missing.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*service.Session, models.Credentials, bool) {
	cred, ok := credentials(w, r)
	if !ok {
		return nil, cred, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, cred, false
	}
	sess, err := h.svc.Get(id)
	if err != nil || !sess.OwnedBy(cred.UserID) {
		writeErrorJSON(w, http.StatusNotFound, "not found")
		return nil, cred, false
	}
	return sess, cred, true
}

func (h *Handler) writeStatus(w http.ResponseWriter, code int, sess *service.Session) {
	st, err := sess.Status()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, code, st)
}

func credentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	cred := models.Credentials{
		UserID: strings.TrimSpace(r.Header.Get("X-User-ID")),
		Token:  strings.TrimSpace(token),
	}
	if !found || cred.Token == "" || cred.UserID == "" {
		writeErrorJSON(w, http.StatusUnauthorized, "missing credentials")
		return cred, false
	}
	return cred, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "body too large")
			return false
		}
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
