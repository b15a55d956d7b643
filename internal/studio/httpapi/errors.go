package httpapi

import (
	"errors"
	"net/http"

	"github.com/romariotrain/clip-studio/internal/studio/effects"
	"github.com/romariotrain/clip-studio/internal/studio/models"
)

// statusFor maps a domain error onto an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrEmptyTimeline),
		errors.Is(err, models.ErrUnresolvedSource),
		errors.Is(err, effects.ErrInvalidEffect),
		errors.Is(err, effects.ErrUnknownKind),
		errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrRenderInProgress), errors.Is(err, models.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrSessionEnded):
		return http.StatusGone, err.Error()
	case errors.Is(err, models.ErrRenderTimedOut):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, models.ErrRenderFailed):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, models.ErrRenderCancelled):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeErrorJSON(w, status, msg)
}
