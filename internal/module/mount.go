package module

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownRegion is returned for a region without a lifecycle entry.
var ErrUnknownRegion = errors.New("unknown region")

// MountState is the state of one region's mount guard.
type MountState int

const (
	Unmounted MountState = iota
	Mounted
)

func (s MountState) String() string {
	if s == Mounted {
		return "mounted"
	}
	return "unmounted"
}

// CallFunc invokes a module export by name.
type CallFunc func(export string) error

// Mount guards one region's lifecycle so the mount export runs at most once
// per session, and the unmount export at most once per successful mount, no
// matter how often the triggering event fires.
type Mount struct {
	region Region
	lc     Lifecycle
	call   CallFunc

	mu    sync.Mutex
	state MountState
}

// NewMount creates an unmounted guard for region.
func NewMount(region Region, call CallFunc) (*Mount, error) {
	lc, ok := region.Lifecycle()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRegion, int(region))
	}
	return &Mount{region: region, lc: lc, call: call}, nil
}

// State returns the current guard state.
func (m *Mount) State() MountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Acquire runs the mount export if the region is unmounted. It reports whether
// the export was invoked. A failed mount leaves the region unmounted.
func (m *Mount) Acquire() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Mounted {
		return false, nil
	}
	if err := m.call(m.lc.Mount); err != nil {
		return true, fmt.Errorf("%s: %w", m.lc.Mount, err)
	}
	m.state = Mounted
	return true, nil
}

// Release runs the unmount export if the region is mounted. The guard moves to
// unmounted before the export runs, so a failing unmount is never retried.
func (m *Mount) Release() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Unmounted {
		return false, nil
	}
	m.state = Unmounted
	if err := m.call(m.lc.Unmount); err != nil {
		return true, fmt.Errorf("%s: %w", m.lc.Unmount, err)
	}
	return true, nil
}
