package runtime

import "fmt"

// State is the lifecycle state of a Runtime.
type State string

const (
	StateInitial    State = "initial"
	StateRendering  State = "rendering"
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateDestroyed  State = "destroyed"
)

// transitions lists the legal moves out of each state. submitted is a
// terminal display state left only through Reset or Destroy.
var transitions = map[State][]State{
	StateInitial:    {StateRendering, StateDestroyed},
	StateRendering:  {StateIdle, StateDestroyed},
	StateIdle:       {StateRendering, StateSubmitting, StateDestroyed},
	StateSubmitting: {StateIdle, StateSubmitted, StateDestroyed},
	StateSubmitted:  {StateRendering, StateDestroyed},
	StateDestroyed:  nil,
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func notAllowed(op string, state State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, state)
}
