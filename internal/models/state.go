// ABOUTME: Processing state machine for the chunk pipeline
// ABOUTME: Defines the 3 states and the legal transitions between them
package models

import "fmt"

// ProcessingState is the pipeline's position in its lifecycle
type ProcessingState string

const (
	// StateIdle - Empty buffer, no enrichment cycle in flight
	StateIdle ProcessingState = "idle"

	// StateAccumulating - Buffer holds text below the cut threshold, no cycle in flight
	StateAccumulating ProcessingState = "accumulating"

	// StateEnriching - Exactly one enrichment cycle is in flight
	StateEnriching ProcessingState = "enriching"
)

// IsValid returns true if the state is one of the 3 known states
func (s ProcessingState) IsValid() bool {
	switch s {
	case StateIdle, StateAccumulating, StateEnriching:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is legal.
// Entering StateEnriching from StateEnriching is the one illegal move; it is
// what keeps enrichment single-flight.
func (s ProcessingState) CanTransition(next ProcessingState) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == StateEnriching && next == StateEnriching {
		return false
	}
	return true
}

// Transition returns next if the move is legal, or an error otherwise
func (s ProcessingState) Transition(next ProcessingState) (ProcessingState, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("illegal state transition %s -> %s", s, next)
	}
	return next, nil
}
