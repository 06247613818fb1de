// models/refresh_state.go
package models

import "fmt"

// RefreshState is the position of one table in its refresh state machine.
//
//	PENDING -> LOADING -> LOADED -> REGISTRY_UPDATED -> CLEANED
//	any non-terminal state -> FAILED
type RefreshState string

const (
	StatePending         RefreshState = "PENDING"
	StateLoading         RefreshState = "LOADING"
	StateLoaded          RefreshState = "LOADED"
	StateRegistryUpdated RefreshState = "REGISTRY_UPDATED"
	StateCleaned         RefreshState = "CLEANED"
	StateFailed          RefreshState = "FAILED"
)

// RefreshStates holds per-table state for a single run.
type RefreshStates map[string]RefreshState

// IsTerminal reports whether no further transition is possible.
func (s RefreshState) IsTerminal() bool {
	return s == StateCleaned || s == StateFailed
}

// Transition moves table from -> to, mutating states only if the move is allowed.
// The expected prior state makes out-of-order calls visible.
func (states RefreshStates) Transition(table string, from, to RefreshState) error {
	cur, ok := states[table]
	if !ok {
		return fmt.Errorf("unknown table in refresh state: %q", table)
	}
	if cur != from {
		return fmt.Errorf("invalid transition for %q: expected %s, got %s", table, from, cur)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition for %q: %s -> %s", table, from, to)
	}
	states[table] = to
	return nil
}

// Fail marks a non-terminal table as FAILED.
func (states RefreshStates) Fail(table string) error {
	cur, ok := states[table]
	if !ok {
		return fmt.Errorf("unknown table in refresh state: %q", table)
	}
	return states.Transition(table, cur, StateFailed)
}

func isAllowedTransition(from, to RefreshState) bool {
	if to == StateFailed {
		return !from.IsTerminal()
	}
	switch from {
	case StatePending:
		return to == StateLoading
	case StateLoading:
		return to == StateLoaded
	case StateLoaded:
		return to == StateRegistryUpdated
	case StateRegistryUpdated:
		return to == StateCleaned
	default:
		return false
	}
}
