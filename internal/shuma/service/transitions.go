package service

import (
	"fmt"

	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

// TransitionPolicy decides whether a booking may move from one status to
// another. A non-nil error rejects the change.
type TransitionPolicy func(from, to types.Status) error

// AnyTransition allows every move between valid statuses, including a
// status to itself.
func AnyTransition(from, to types.Status) error { return nil }

var strictEdges = map[types.Status][]types.Status{
	types.StatusPending:   {types.StatusConfirmed, types.StatusCancelled},
	types.StatusConfirmed: {types.StatusCompleted, types.StatusCancelled},
}

// StrictTransitions follows the booking lifecycle: pending may be confirmed
// or cancelled, confirmed may be completed or cancelled. Completed and
// cancelled are terminal. Self transitions are always allowed.
func StrictTransitions(from, to types.Status) error {
	if from == to {
		return nil
	}
	for _, next := range strictEdges[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
