package solo

import "fmt"

// negotiatorState represents a small finite state machine. It has the following transitions:
// ∅          → Acquiring
// Acquiring  → Original
// Acquiring  → Duplicate
// Duplicate  → Acquiring
// *          → Stopped
//
// The meaning of each state is described above the state's definition below.
type negotiatorState string

const (
	// Acquiring is the initial state. The negotiator is trying to bind the
	// instance port. A duplicate that is replacing the original returns here.
	negotiatorStateAcquiring negotiatorState = "acquiring"
	// Original is the state of a negotiator that holds the instance port and
	// listens for duplicates.
	negotiatorStateOriginal negotiatorState = "original"
	// Duplicate is the state of a negotiator that could not bind the port and
	// is, or was, messaging the original.
	negotiatorStateDuplicate negotiatorState = "duplicate"
	// Stopped is the state after Stop has been called.
	negotiatorStateStopped negotiatorState = "stopped"
)

var validTransitions = map[negotiatorState][]negotiatorState{
	negotiatorStateAcquiring: {
		negotiatorStateOriginal,
		negotiatorStateDuplicate,
		negotiatorStateStopped,
	},
	negotiatorStateOriginal: {
		negotiatorStateStopped,
	},
	negotiatorStateDuplicate: {
		negotiatorStateAcquiring,
		negotiatorStateStopped,
	},
	negotiatorStateStopped: {
		negotiatorStateStopped,
	},
}

func (s *negotiatorState) canTransitionTo(state negotiatorState) error {
	for _, target := range validTransitions[*s] {
		if target == state {
			return nil
		}
	}
	return fmt.Errorf("unable to transition from %s to %s", *s, state)
}

func (s *negotiatorState) transitionTo(state negotiatorState) error {
	if err := s.canTransitionTo(state); err != nil {
		return err
	}
	*s = state
	return nil
}

func (s negotiatorState) role() Role {
	switch s {
	case negotiatorStateOriginal:
		return RoleOriginal
	case negotiatorStateDuplicate:
		return RoleDuplicate
	default:
		return RoleUndetermined
	}
}
