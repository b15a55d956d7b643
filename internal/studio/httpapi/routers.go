package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /effects", h.ListEffects)

	mux.HandleFunc("GET /projects", h.ListProjects)
	mux.HandleFunc("POST /projects", h.CreateProject)
	mux.HandleFunc("GET /projects/{id}", h.GetProject)
	mux.HandleFunc("PATCH /projects/{id}", h.UpdateProject)
	mux.HandleFunc("POST /projects/{id}/resume", h.ResumeProject)
	mux.HandleFunc("DELETE /projects/{id}/session", h.CloseSession)

	mux.HandleFunc("POST /projects/{id}/tracks", h.AddTrack)
	mux.HandleFunc("PATCH /projects/{id}/tracks/{trackID}", h.UpdateTrack)
	mux.HandleFunc("DELETE /projects/{id}/tracks/{trackID}", h.RemoveTrack)
	mux.HandleFunc("POST /projects/{id}/tracks/{trackID}/move", h.MoveTrack)
	mux.HandleFunc("POST /projects/{id}/tracks/{trackID}/effects", h.ApplyEffect)
	mux.HandleFunc("DELETE /projects/{id}/tracks/{trackID}/effects/{index}", h.RemoveEffect)
	mux.HandleFunc("PUT /projects/{id}/selection", h.SelectTrack)

	mux.HandleFunc("POST /projects/{id}/render", h.Render)
	mux.HandleFunc("POST /projects/{id}/analysis", h.Analyze)
	mux.HandleFunc("POST /projects/{id}/publish", h.Publish)

	return withRequestLog(h.logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := logger.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
