package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
	"git.home.luguber.info/inful/wasmdev/internal/metrics"
	"git.home.luguber.info/inful/wasmdev/internal/observability"
	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
)

// Global carries process-wide dependencies into commands. Tests replace the
// writers and the runner.
type Global struct {
	Ctx    context.Context
	Out    io.Writer // progress lines
	Err    io.Writer // logs and error reports
	Runner toolchain.Runner
	Logger *slog.Logger

	prom *metrics.PrometheusRecorder
}

// NewGlobal returns the production wiring.
func NewGlobal(ctx context.Context) *Global {
	return &Global{
		Ctx:    ctx,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Runner: toolchain.NewExecRunner(),
	}
}

// Recorder returns the Prometheus recorder when --metrics-file was given.
func (g *Global) Recorder() metrics.Recorder {
	if g.prom == nil {
		return metrics.NoopRecorder{}
	}
	return g.prom
}

// CLI definition & global flags.
type CLI struct {
	Root        string           `short:"C" name:"root" default:"." help:"Project root directory."`
	Config      string           `short:"c" help:"Configuration file (default: <root>/wasmdev.yaml)."`
	Verbose     bool             `short:"v" help:"Enable verbose logging and stream toolchain output."`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this file when the command finishes."`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Compile the module and bundle the web application."`
	BuildWasm BuildWasmCmd `cmd:"" name:"build-wasm" help:"Compile the WebAssembly module with wasm-pack."`
	BuildWeb  BuildWebCmd  `cmd:"" name:"build-web" help:"Typecheck and bundle the web application."`
	Dev       DevCmd       `cmd:"" help:"Stage the module and run the hot-reload dev server."`
	Verify    VerifyCmd    `cmd:"" help:"Check that the development environment is set up."`
	Inspect   InspectCmd   `cmd:"" help:"List the compiled module's exports."`
}

// AfterApply runs after flag parsing; setup logging once. The project's
// .env files are loaded first so they can set WASMDEV_LOG_LEVEL.
func (c *CLI) AfterApply(g *Global) error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return werrors.ConfigInvalid(c.Root, err)
	}
	loaded, envErr := config.LoadDotEnv(root)
	g.Logger = observability.Setup(g.Err, config.ResolveLogLevel(c.Verbose))
	if envErr != nil {
		return werrors.ConfigInvalid(root, envErr)
	}
	for _, p := range loaded {
		slog.Debug("Loaded environment file", logfields.Path(p))
	}
	if c.MetricsFile != "" {
		g.prom = metrics.NewPrometheusRecorder(nil)
	}
	return nil
}

// Finish flushes metrics. Failures are logged and never change the exit code.
func (c *CLI) Finish(g *Global) {
	if g.prom == nil || c.MetricsFile == "" {
		return
	}
	if err := g.prom.WriteTextfile(c.MetricsFile); err != nil {
		slog.Warn("Failed to write metrics file", logfields.Path(c.MetricsFile), logfields.Error(err))
		return
	}
	slog.Debug("Wrote metrics file", logfields.Path(c.MetricsFile))
}

// project is the resolved configuration of the project the command runs on.
type project struct {
	cfg    *config.Config
	layout config.Layout
}

// loadProject resolves the root and loads the configuration.
func (c *CLI) loadProject() (*project, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, werrors.ConfigInvalid(c.Root, err)
	}
	cfg, err := config.Load(root, c.Config)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded project", logfields.Path(root), "module_dir", cfg.Module.Dir, "web_dir", cfg.Web.Dir)
	return &project{cfg: cfg, layout: cfg.Layout(root)}, nil
}
