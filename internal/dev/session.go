// Package dev runs a local development session: make sure the module is
// compiled, stage it into the static asset directory and serve the app with
// hot reload until the server process exits.
package dev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
	"git.home.luguber.info/inful/wasmdev/internal/metrics"
	"git.home.luguber.info/inful/wasmdev/internal/observability"
	"git.home.luguber.info/inful/wasmdev/internal/stage"
	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
)

const defaultDebounce = 300 * time.Millisecond

// Options configures one session. Passed by value; never mutated.
type Options struct {
	Verbose   bool
	Watch     bool // recompile and restage on module source changes
	ForceLock bool // break a staging lock left behind by another session
}

// Compiler is the part of the module compiler a session needs.
type Compiler interface {
	Compile(ctx context.Context, opts wasm.Options) error
}

// Session drives the dev state machine.
type Session struct {
	cfg      *config.Config
	layout   config.Layout
	compiler Compiler
	runner   toolchain.Runner
	copier   stage.Copier
	recorder metrics.Recorder
	out      io.Writer
	machine  *Machine
	debounce time.Duration
}

// NewSession wires a session for the project layout.
func NewSession(cfg *config.Config, layout config.Layout, compiler Compiler, runner toolchain.Runner) *Session {
	return &Session{
		cfg:      cfg,
		layout:   layout,
		compiler: compiler,
		runner:   runner,
		copier:   stage.New(),
		recorder: metrics.NoopRecorder{},
		out:      os.Stdout,
		machine:  NewMachine(),
		debounce: defaultDebounce,
	}
}

// WithOutput redirects progress lines.
func (s *Session) WithOutput(w io.Writer) *Session {
	if w != nil {
		s.out = w
	}
	return s
}

// WithCopier replaces the filesystem stager.
func (s *Session) WithCopier(c stage.Copier) *Session {
	if c != nil {
		s.copier = c
	}
	return s
}

// WithRecorder injects a metrics recorder.
func (s *Session) WithRecorder(r metrics.Recorder) *Session {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Machine exposes the state machine (read-only use).
func (s *Session) Machine() *Machine { return s.machine }

// ServerCommand returns the hot-reload server invocation. Bun's default
// server port is taken from BUN_PORT.
func (s *Session) ServerCommand() toolchain.Command {
	port := strconv.Itoa(s.cfg.Dev.Port)
	return toolchain.Command{
		Program: s.cfg.Tools.Bun,
		Args:    []string{"--hot", s.layout.WebEntry},
		Dir:     s.layout.Root,
		Env:     map[string]string{"BUN_PORT": port},
		Stream:  true,
	}
}

func (s *Session) enter(ctx context.Context, to State) context.Context {
	from := s.machine.Current()
	if err := s.machine.Transition(from, to); err != nil {
		observability.ErrorContext(ctx, "Dev session state machine rejected transition", logfields.Error(err))
		return ctx
	}
	ctx = observability.WithState(ctx, string(to))
	observability.DebugContext(ctx, "Dev session state changed", logfields.State(string(to)), slog.String("from", string(from)))
	return ctx
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.enter(ctx, StateSetupFailed)
	return err
}

// Run executes the session. It returns when the server process exits, when
// setup fails or when ctx is canceled.
func (s *Session) Run(ctx context.Context, opts Options) error {
	_, _ = fmt.Fprintln(s.out, "Development server setup")

	if _, err := os.Stat(s.layout.Binary); err != nil {
		ctx = s.enter(ctx, StateCompiling)
		_, _ = fmt.Fprintln(s.out, "Building WASM package...")
		if err := s.compiler.Compile(ctx, wasm.Options{Verbose: opts.Verbose, Stream: true}); err != nil {
			return s.fail(ctx, err)
		}
		if _, err := os.Stat(s.layout.Binary); err != nil {
			return s.fail(ctx, werrors.ArtifactNotProduced(wasm.StageName, s.layout.Binary))
		}
		_, _ = fmt.Fprintln(s.out, "WASM build complete")
	}

	ctx = s.enter(ctx, StateStaging)
	lock, err := stage.AcquireLock(s.layout.LockFile, opts.ForceLock)
	if err != nil {
		return s.fail(ctx, werrors.StagingFailed(s.layout.StagedBinary, err))
	}
	defer func() {
		if err := lock.Release(); err != nil {
			observability.WarnContext(ctx, "Failed to release staging lock", logfields.Path(lock.Path()), logfields.Error(err))
		}
	}()

	if err := s.stage(); err != nil {
		return s.fail(ctx, err)
	}

	ctx = s.enter(ctx, StateServing)
	return s.serve(ctx, opts)
}

func (s *Session) stage() error {
	if _, err := os.Stat(s.layout.StaticDir); errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintln(s.out, "Creating public directory...")
	}
	if _, err := s.copier.Stage(s.layout.Binary, s.layout.StaticDir); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, "Copied WASM file to public directory")
	return nil
}

func (s *Session) serve(ctx context.Context, opts Options) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.Watch {
		w, err := newWatcher(s.layout, s.debounce)
		if err != nil {
			observability.WarnContext(ctx, "Source watching disabled", logfields.Error(err))
		} else {
			done := make(chan struct{})
			go func() {
				defer close(done)
				w.run(serveCtx, func(rctx context.Context) { s.rebuild(rctx, opts) })
			}()
			defer func() {
				cancel()
				<-done
			}()
			_, _ = fmt.Fprintf(s.out, "Watching %s for changes\n", s.layout.ModuleDir)
		}
	}

	_, _ = fmt.Fprintln(s.out, "Starting dev server...")
	_, _ = fmt.Fprintf(s.out, "Open http://localhost:%d in your browser\n", s.cfg.Dev.Port)
	observability.InfoContext(ctx, "Dev server starting", logfields.Port(s.cfg.Dev.Port), logfields.Path(s.layout.WebEntry))

	_, err := s.runner.Run(serveCtx, s.ServerCommand())
	s.enter(ctx, StateTerminal)

	if err != nil && ctx.Err() == nil {
		return werrors.ServerLaunchFailed(err).WithContext("port", s.cfg.Dev.Port)
	}
	observability.InfoContext(ctx, "Dev server stopped")
	return nil
}

// rebuild recompiles in development mode and restages. Failures are logged;
// the running server keeps serving the previous artifact.
func (s *Session) rebuild(ctx context.Context, opts Options) {
	_, _ = fmt.Fprintln(s.out, "Change detected; rebuilding WASM package...")
	start := time.Now()
	err := s.compiler.Compile(ctx, wasm.Options{Verbose: opts.Verbose, Stream: true})
	if err == nil {
		_, err = s.copier.Stage(s.layout.Binary, s.layout.StaticDir)
	}
	s.recorder.IncDevRebuild(err == nil)
	if err != nil {
		observability.WarnContext(ctx, "Rebuild failed", logfields.Error(err))
		_, _ = fmt.Fprintf(s.out, "Rebuild failed: %v\n", err)
		return
	}
	observability.InfoContext(ctx, "Rebuilt and restaged module", logfields.Elapsed(time.Since(start)))
	_, _ = fmt.Fprintln(s.out, "Rebuilt and restaged WASM file")
}
