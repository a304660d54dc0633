// Package module describes the compiled WebAssembly module from the host side:
// its export surface, the region lifecycle table and the guards the
// presentation layer relies on.
package module

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
)

// Instance is an initialized view of the module binary.
type Instance struct {
	Path    string
	Digest  artifact.Digest
	Exports []Export

	funcs map[string]struct{}
}

// HasFunc reports whether the module exports a function called name.
func (i *Instance) HasFunc(name string) bool {
	_, ok := i.funcs[name]
	return ok
}

// Supports reports whether both lifecycle exports of region are present.
func (i *Instance) Supports(r Region) bool {
	lc, ok := r.Lifecycle()
	return ok && i.HasFunc(lc.Mount) && i.HasFunc(lc.Unmount)
}

// MissingExports returns every expected function the module does not export,
// sorted by name.
func (i *Instance) MissingExports() []string {
	var want []string
	for _, r := range Regions() {
		if lc, ok := r.Lifecycle(); ok {
			want = append(want, lc.Mount, lc.Unmount)
		}
	}
	want = append(want, ControlExports...)

	var missing []string
	for _, name := range want {
		if !i.HasFunc(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Loader initializes the module at most once. Concurrent Init calls share one
// initialization; a failed one leaves the loader uninitialized so a later
// call can retry.
type Loader struct {
	path string

	mu   sync.Mutex
	inst *Instance
}

// NewLoader creates a loader for the binary at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Init returns the cached instance, initializing it on first use.
func (l *Loader) Init(ctx context.Context) (*Instance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inst != nil {
		return l.inst, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inst, err := load(l.path)
	if err != nil {
		return nil, err
	}
	l.inst = inst
	return inst, nil
}

// Instance returns the initialized instance, or false before a successful Init.
func (l *Loader) Instance() (*Instance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inst, l.inst != nil
}

func load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	exports, err := ParseExports(data)
	if err != nil {
		return nil, fmt.Errorf("parse module %s: %w", path, err)
	}
	digest, err := artifact.DigestFile(path)
	if err != nil {
		return nil, err
	}
	funcs := make(map[string]struct{}, len(exports))
	for _, e := range exports {
		if e.Kind == ExportFunc {
			funcs[e.Name] = struct{}{}
		}
	}
	return &Instance{Path: path, Digest: digest, Exports: exports, funcs: funcs}, nil
}
