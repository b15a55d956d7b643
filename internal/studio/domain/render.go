package domain

import "fmt"

// RenderState is a step of one render cycle.
type RenderState string

const (
	RenderIdle       RenderState = "idle"
	RenderUploading  RenderState = "uploading"
	RenderSubmitting RenderState = "submitting"
	RenderPolling    RenderState = "polling"
	RenderSucceeded  RenderState = "succeeded"
	RenderFailed     RenderState = "failed"
	RenderTimedOut   RenderState = "timed_out"
	RenderCancelled  RenderState = "cancelled"
)

func (s RenderState) Terminal() bool {
	switch s {
	case RenderSucceeded, RenderFailed, RenderTimedOut, RenderCancelled:
		return true
	default:
		return false
	}
}

func CanTransitionRender(from, to RenderState) bool {
	switch from {
	case RenderIdle:
		// Idle -> Idle is the rejected-precondition path.
		return to == RenderIdle || to == RenderUploading
	case RenderUploading:
		return to == RenderSubmitting || to == RenderFailed || to == RenderCancelled
	case RenderSubmitting:
		return to == RenderPolling || to == RenderFailed || to == RenderCancelled
	case RenderPolling:
		return to == RenderSucceeded || to == RenderFailed || to == RenderTimedOut || to == RenderCancelled
	default:
		return false
	}
}

func ValidateRenderTransition(from, to RenderState) error {
	if !CanTransitionRender(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
