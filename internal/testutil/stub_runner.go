// Package testutil holds test doubles shared across package tests.
package testutil

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
)

// StubRunner records invocations and answers them with a configurable hook.
type StubRunner struct {
	mu    sync.Mutex
	calls []toolchain.Command

	// OnRun, when set, decides the outcome of each call.
	OnRun func(cmd toolchain.Command) (*toolchain.Result, error)
}

func (s *StubRunner) Run(_ context.Context, cmd toolchain.Command) (*toolchain.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, cmd)
	hook := s.OnRun
	s.mu.Unlock()

	if hook != nil {
		return hook(cmd)
	}
	return &toolchain.Result{}, nil
}

// Calls returns a copy of the recorded invocations.
func (s *StubRunner) Calls() []toolchain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]toolchain.Command, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo counts invocations of program.
func (s *StubRunner) CallsTo(program string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Program == program {
			n++
		}
	}
	return n
}
