package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")

	ErrEmptyTimeline    = errors.New("project has no tracks")
	ErrUnresolvedSource = errors.New("track source is not a remote uri")
	ErrRenderInProgress = errors.New("render already in progress")
	ErrRenderFailed     = errors.New("render failed")
	ErrRenderTimedOut   = errors.New("render timed out")
	ErrRenderCancelled  = errors.New("render cancelled")
	ErrSessionEnded     = errors.New("editing session ended")
)
