package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/manifest"
	"git.home.luguber.info/inful/wasmdev/internal/metrics"
	"git.home.luguber.info/inful/wasmdev/internal/testutil"
	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
	"git.home.luguber.info/inful/wasmdev/internal/web"
)

type fakeCompiler struct {
	seq   *[]string
	err   error
	arts  []artifact.Artifact
	calls int
	last  wasm.Options
}

func (f *fakeCompiler) Compile(_ context.Context, opts wasm.Options) error {
	f.calls++
	f.last = opts
	*f.seq = append(*f.seq, "compile:done")
	return f.err
}

func (f *fakeCompiler) Artifacts() []artifact.Artifact { return f.arts }

type fakeBundler struct {
	seq   *[]string
	err   error
	arts  []artifact.Artifact
	calls int
	last  web.Options
}

func (f *fakeBundler) Bundle(_ context.Context, opts web.Options) error {
	f.calls++
	f.last = opts
	*f.seq = append(*f.seq, "bundle:typecheck", "bundle:bundle", "bundle:copy")
	return f.err
}

func (f *fakeBundler) Artifacts() []artifact.Artifact { return f.arts }

type countingRecorder struct {
	metrics.NoopRecorder
	stageResults map[string]metrics.ResultLabel
	outcome      metrics.BuildOutcomeLabel
}

func (r *countingRecorder) IncStageResult(stage string, res metrics.ResultLabel) {
	r.stageResults[stage] = res
}
func (r *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) { r.outcome = o }

func newFakes() (*fakeCompiler, *fakeBundler, *[]string) {
	seq := &[]string{}
	return &fakeCompiler{seq: seq}, &fakeBundler{seq: seq}, seq
}

func TestRun_CompilerCompletesBeforeBundlerCopy(t *testing.T) {
	c, b, seq := newFakes()
	var out bytes.Buffer

	res, err := NewOrchestrator(c, b).WithOutput(&out).Run(context.Background(), Options{Mode: config.ModeProduction})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []string{"compile:done", "bundle:typecheck", "bundle:bundle", "bundle:copy"}, *seq)
	require.Equal(t, []string{StageWasm, StageWeb}, res.Stages)
	require.NotEmpty(t, res.BuildID)

	require.True(t, c.last.Release)
	require.Equal(t, config.ModeProduction, b.last.Mode)
	require.False(t, b.last.SkipTypecheck)

	require.Contains(t, out.String(), "Starting production build...")
	require.Contains(t, out.String(), "Building WASM package...")
	require.Contains(t, out.String(), "Building web package...")
	require.Regexp(t, `Build completed in \d+\.\d{2}s`, out.String())
}

func TestRun_CompilerFailureStopsPipeline(t *testing.T) {
	c, b, _ := newFakes()
	c.err = werrors.CompileFailed(fmt.Errorf("cargo exited 101"))
	rec := &countingRecorder{stageResults: map[string]metrics.ResultLabel{}}
	var out bytes.Buffer

	res, err := NewOrchestrator(c, b).WithRecorder(rec).WithOutput(&out).Run(context.Background(), Options{Mode: config.ModeDevelopment})
	require.Error(t, err)
	require.True(t, errors.Is(err, werrors.KindCompileFailed))
	require.False(t, res.Success)
	require.Equal(t, StageWasm, res.FailedStage)
	require.Equal(t, 0, b.calls)
	require.Equal(t, metrics.ResultFailed, rec.stageResults[StageWasm])
	require.Equal(t, metrics.BuildOutcomeFailed, rec.outcome)
	require.NotContains(t, out.String(), "Building web package...")
	require.Contains(t, out.String(), "Build failed in wasm stage")
}

func TestRun_MissingArtifactAfterReportedSuccess(t *testing.T) {
	c, b, _ := newFakes()
	c.arts = []artifact.Artifact{{Name: "wasm binary", Path: filepath.Join(t.TempDir(), "app_bg.wasm")}}

	res, err := NewOrchestrator(c, b).WithOutput(&bytes.Buffer{}).Run(context.Background(), Options{})
	require.True(t, errors.Is(err, werrors.KindArtifactNotProduced))
	require.Equal(t, StageWasm, res.FailedStage)
	require.Equal(t, 0, b.calls)
}

func TestRun_SkipFlags(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantCompiler int
		wantBundler  int
	}{
		{"both", Options{}, 1, 1},
		{"skip wasm", Options{SkipWasm: true}, 0, 1},
		{"skip web", Options{SkipWeb: true}, 1, 0},
		{"skip both", Options{SkipWasm: true, SkipWeb: true}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, b, _ := newFakes()
			res, err := NewOrchestrator(c, b).WithOutput(&bytes.Buffer{}).Run(context.Background(), tt.opts)
			require.NoError(t, err)
			require.True(t, res.Success)
			require.Equal(t, tt.wantCompiler, c.calls)
			require.Equal(t, tt.wantBundler, b.calls)
		})
	}
}

func TestRun_ElapsedSpansBothStages(t *testing.T) {
	c, b, _ := newFakes()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0
	o := NewOrchestrator(c, b).WithOutput(&bytes.Buffer{})
	o.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Second)
	}
	o.newID = func() string { return "fixed-id" }

	res, err := o.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, "fixed-id", res.BuildID)
	require.Greater(t, res.Elapsed, 2*time.Second)
}

// End-to-end with the real stages over an empty project directory.
func TestRun_EmptyProjectFailsBeforeBundler(t *testing.T) {
	cfg := config.Default()
	layout := cfg.Layout(t.TempDir())
	runner := &testutil.StubRunner{}
	var out bytes.Buffer

	orch := NewOrchestrator(
		wasm.NewCompiler(cfg, layout, runner).WithOutput(&out),
		web.NewBundler(cfg, layout, runner).WithOutput(&out),
	).WithOutput(&out)

	res, err := orch.Run(context.Background(), Options{Mode: config.ModeProduction})
	require.True(t, errors.Is(err, werrors.KindMissingSourceDirectory))
	require.Equal(t, StageWasm, res.FailedStage)
	require.Empty(t, runner.Calls())
	require.NoDirExists(t, layout.DistDir)
}

func TestRun_WritesManifestAfterWebStage(t *testing.T) {
	cfg := config.Default()
	layout := cfg.Layout(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.ModuleDir, 0o755))

	runner := &testutil.StubRunner{OnRun: func(cmd toolchain.Command) (*toolchain.Result, error) {
		switch cmd.Program {
		case "wasm-pack":
			require.NoError(t, os.MkdirAll(layout.ModuleOutDir, 0o755))
			require.NoError(t, os.WriteFile(layout.Binary, []byte("\x00asm\x01\x00\x00\x00"), 0o644))
			require.NoError(t, os.WriteFile(layout.Loader, []byte("export default init"), 0o644))
		case "bun":
			require.NoError(t, os.WriteFile(layout.DistShell, []byte(`<html><script src="a.js"></script></html>`), 0o644))
		}
		return &toolchain.Result{}, nil
	}}
	var out bytes.Buffer

	res, err := NewOrchestrator(
		wasm.NewCompiler(cfg, layout, runner).WithOutput(&out),
		web.NewBundler(cfg, layout, runner).WithOutput(&out),
	).WithOutput(&out).WithManifest(layout).Run(context.Background(), Options{Mode: config.ModeProduction})
	require.NoError(t, err)

	// wasm-pack must have finished before tsc and bun started.
	calls := runner.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, "wasm-pack", calls[0].Program)
	require.Equal(t, "tsc", calls[1].Program)
	require.Equal(t, "bun", calls[2].Program)

	m, err := manifest.Read(layout.DistDir)
	require.NoError(t, err)
	require.Equal(t, res.BuildID, m.ID)
	require.Equal(t, "production", m.Mode)
	require.Len(t, m.Artifacts, 2)
	require.Equal(t, cfg.BinaryName(), m.Artifacts[1].Name)
	require.EqualValues(t, 8, m.Artifacts[1].Size)
}
