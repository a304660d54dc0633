package dev

import (
	"fmt"
	"sync"
)

// State is one step of a dev session.
type State string

const (
	StateCheckingArtifact State = "checking-artifact"
	StateCompiling        State = "compiling"
	StateStaging          State = "staging"
	StateServing          State = "serving"
	StateTerminal         State = "terminal"
	StateSetupFailed      State = "setup-failed"
)

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateTerminal || s == StateSetupFailed
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateCheckingArtifact:
		return to == StateCompiling || to == StateStaging || to == StateSetupFailed
	case StateCompiling:
		return to == StateStaging || to == StateSetupFailed
	case StateStaging:
		return to == StateServing || to == StateSetupFailed
	case StateServing:
		return to == StateTerminal
	default:
		return false
	}
}

// Machine tracks the session state. Every change goes through Transition,
// which rejects moves the session lifecycle does not allow.
type Machine struct {
	mu      sync.Mutex
	current State
	history []State
}

// NewMachine starts in checking-artifact.
func NewMachine() *Machine {
	return &Machine{current: StateCheckingArtifact, history: []State{StateCheckingArtifact}}
}

// Current returns the present state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns every state entered so far, in order.
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

// Transition moves from -> to. The caller names the expected prior state so a
// mismatch is reported instead of silently overwritten.
func (m *Machine) Transition(from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, m.current)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	m.current = to
	m.history = append(m.history, to)
	return nil
}
