package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
	"git.home.luguber.info/inful/wasmdev/internal/web"
)

// Stage names as they appear in results, logs and metrics.
const (
	StageWasm = wasm.StageName
	StageWeb  = web.StageName
)

// ModuleCompiler is the contract of the wasm stage.
type ModuleCompiler interface {
	Compile(ctx context.Context, opts wasm.Options) error
	Artifacts() []artifact.Artifact
}

// AppBundler is the contract of the web stage.
type AppBundler interface {
	Bundle(ctx context.Context, opts web.Options) error
	Artifacts() []artifact.Artifact
}

// Options selects what one pipeline run does. Passed by value; never mutated.
type Options struct {
	Mode     config.BuildMode
	SkipWasm bool
	SkipWeb  bool
	Verbose  bool
}

// PipelineResult is the outcome of one run. It is created once when the run
// ends and never changed afterwards.
type PipelineResult struct {
	BuildID     string
	Mode        config.BuildMode
	Elapsed     time.Duration
	Success     bool
	FailedStage string   // empty on success
	Stages      []string // stages that ran, in order
}
