package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
	"git.home.luguber.info/inful/wasmdev/internal/manifest"
	"git.home.luguber.info/inful/wasmdev/internal/metrics"
	"git.home.luguber.info/inful/wasmdev/internal/observability"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
	"git.home.luguber.info/inful/wasmdev/internal/web"
)

// Orchestrator sequences the compiler and the bundler.
type Orchestrator struct {
	compiler ModuleCompiler
	bundler  AppBundler
	recorder metrics.Recorder
	out      io.Writer
	now      func() time.Time
	newID    func() string

	// manifest target; empty disables writing build-manifest.json
	layout *config.Layout
}

// NewOrchestrator creates an orchestrator over the two stages.
func NewOrchestrator(compiler ModuleCompiler, bundler AppBundler) *Orchestrator {
	return &Orchestrator{
		compiler: compiler,
		bundler:  bundler,
		recorder: metrics.NoopRecorder{},
		out:      os.Stdout,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithRecorder injects a metrics recorder.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r != nil {
		o.recorder = r
	}
	return o
}

// WithOutput redirects progress lines.
func (o *Orchestrator) WithOutput(w io.Writer) *Orchestrator {
	if w != nil {
		o.out = w
	}
	return o
}

// WithManifest enables writing build-manifest.json into the distribution
// directory after a successful run that included the web stage.
func (o *Orchestrator) WithManifest(layout config.Layout) *Orchestrator {
	o.layout = &layout
	return o
}

type step struct {
	name      string
	banner    string
	run       func(context.Context) error
	artifacts func() []artifact.Artifact
}

func (o *Orchestrator) steps(opts Options) []step {
	var steps []step
	if !opts.SkipWasm {
		steps = append(steps, step{
			name:   StageWasm,
			banner: "Building WASM package...",
			run: func(ctx context.Context) error {
				return o.compiler.Compile(ctx, wasm.Options{Release: opts.Mode.IsRelease(), Verbose: opts.Verbose})
			},
			artifacts: o.compiler.Artifacts,
		})
	}
	if !opts.SkipWeb {
		steps = append(steps, step{
			name:   StageWeb,
			banner: "Building web package...",
			run: func(ctx context.Context) error {
				return o.bundler.Bundle(ctx, web.Options{Mode: opts.Mode, Verbose: opts.Verbose})
			},
			artifacts: o.bundler.Artifacts,
		})
	}
	return steps
}

// Run executes the enabled stages in order and stops at the first failure.
// The returned error is the failing stage's error, unchanged.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (PipelineResult, error) {
	if opts.Mode == "" {
		opts.Mode = config.ModeProduction
	}
	start := o.now()
	buildID := o.newID()
	ctx = observability.WithBuildID(ctx, buildID)

	_, _ = fmt.Fprintf(o.out, "Starting %s build...\n", opts.Mode)
	observability.DebugContext(ctx, "Build started", logfields.Mode(opts.Mode.String()),
		slog.Bool("skip_wasm", opts.SkipWasm), slog.Bool("skip_web", opts.SkipWeb))

	var ran []string
	for _, s := range o.steps(opts) {
		ran = append(ran, s.name)
		if err := o.runStep(ctx, s); err != nil {
			res := PipelineResult{
				BuildID:     buildID,
				Mode:        opts.Mode,
				Elapsed:     o.now().Sub(start),
				FailedStage: s.name,
				Stages:      ran,
			}
			o.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
			o.recorder.ObserveBuildDuration(res.Elapsed)
			observability.ErrorContext(observability.WithStage(ctx, s.name), "Build failed", logfields.Error(err), logfields.Elapsed(res.Elapsed))
			_, _ = fmt.Fprintf(o.out, "\nBuild failed in %s stage\n", s.name)
			return res, err
		}
	}

	res := PipelineResult{
		BuildID: buildID,
		Mode:    opts.Mode,
		Elapsed: o.now().Sub(start),
		Success: true,
		Stages:  ran,
	}
	o.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	o.recorder.ObserveBuildDuration(res.Elapsed)

	if o.layout != nil && !opts.SkipWeb {
		o.writeManifest(ctx, res)
	}

	_, _ = fmt.Fprintf(o.out, "\nBuild completed in %.2fs\n", res.Elapsed.Seconds())
	return res, nil
}

func (o *Orchestrator) runStep(ctx context.Context, s step) error {
	ctx = observability.WithStage(ctx, s.name)
	stageStart := o.now()
	_, _ = fmt.Fprintf(o.out, "\n%s\n", s.banner)

	err := s.run(ctx)
	if err == nil {
		if missing, ok := artifact.FirstMissing(s.artifacts()); ok {
			err = werrors.ArtifactNotProduced(s.name, missing.Path).WithContext("artifact", missing.Name)
		}
	}

	o.recorder.ObserveStageDuration(s.name, o.now().Sub(stageStart))
	if err != nil {
		o.recorder.IncStageResult(s.name, metrics.ResultFailed)
		return err
	}
	o.recorder.IncStageResult(s.name, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Stage complete", logfields.Elapsed(o.now().Sub(stageStart)))
	return nil
}

func (o *Orchestrator) writeManifest(ctx context.Context, res PipelineResult) {
	m := &manifest.BuildManifest{
		ID:        res.BuildID,
		Timestamp: o.now().UTC(),
		Mode:      res.Mode.String(),
		Stages:    res.Stages,
		Duration:  res.Elapsed.Milliseconds(),
	}
	if commit, err := manifest.HeadCommit(o.layout.Root); err == nil {
		m.Commit = commit
	} else {
		observability.DebugContext(ctx, "No commit recorded in build manifest", logfields.Error(err))
	}
	if err := m.AddFiles(o.layout.DistShell, o.layout.DistBinary); err != nil {
		observability.WarnContext(ctx, "Failed to hash build artifacts", logfields.Error(err))
		return
	}
	path, err := m.Write(o.layout.DistDir)
	if err != nil {
		observability.WarnContext(ctx, "Failed to write build manifest", logfields.Error(err))
		return
	}
	observability.DebugContext(ctx, "Wrote build manifest", logfields.Path(path))
}
