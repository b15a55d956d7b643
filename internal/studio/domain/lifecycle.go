package domain

import "fmt"

// LifecycleState is the persistence state of an editing session's project.
type LifecycleState string

const (
	Uninitialized LifecycleState = "uninitialized"
	Active        LifecycleState = "active"
	Persisting    LifecycleState = "persisting"
	Ended         LifecycleState = "ended"
)

func CanTransitionLifecycle(from, to LifecycleState) bool {
	switch from {
	case Uninitialized:
		return to == Active || to == Ended
	case Active:
		return to == Persisting || to == Ended
	case Persisting:
		return to == Active || to == Ended
	case Ended:
		return false
	default:
		return false
	}
}

func ValidateLifecycleTransition(from, to LifecycleState) error {
	if from == to {
		return nil
	}
	if !CanTransitionLifecycle(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
