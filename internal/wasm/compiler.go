// Package wasm compiles the binary module with wasm-pack.
package wasm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/wasmdev/internal/artifact"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
)

// StageName identifies this stage in results, logs and metrics.
const StageName = "wasm"

// Options configures one compilation. Passed by value; never mutated.
type Options struct {
	Release bool
	Verbose bool
	Stream  bool // show wasm-pack output without --verbose
}

// Mode returns the human name of the compilation profile.
func (o Options) Mode() string {
	if o.Release {
		return "release"
	}
	return "development"
}

// Compiler invokes wasm-pack against the module source package.
type Compiler struct {
	cfg    *config.Config
	layout config.Layout
	runner toolchain.Runner
	out    io.Writer
}

// NewCompiler wires a compiler for the given project layout.
func NewCompiler(cfg *config.Config, layout config.Layout, runner toolchain.Runner) *Compiler {
	return &Compiler{cfg: cfg, layout: layout, runner: runner, out: os.Stdout}
}

// WithOutput redirects progress lines.
func (c *Compiler) WithOutput(w io.Writer) *Compiler {
	if w != nil {
		c.out = w
	}
	return c
}

// Artifacts lists the files a successful compilation leaves behind.
func (c *Compiler) Artifacts() []artifact.Artifact {
	return []artifact.Artifact{
		{Name: "wasm binary", Path: c.layout.Binary},
		{Name: "wasm loader", Path: c.layout.Loader},
	}
}

// Command returns the wasm-pack invocation for opts.
func (c *Compiler) Command(opts Options) toolchain.Command {
	profile := "--dev"
	if opts.Release {
		profile = "--release"
	}
	args := []string{
		"build",
		"--target", c.cfg.Module.Target,
		profile,
		"--out-dir", c.cfg.Module.OutputDir,
		"--out-name", c.cfg.Module.Name,
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	return toolchain.Command{
		Program: c.cfg.Tools.WasmPack,
		Args:    args,
		Dir:     c.layout.ModuleDir,
		Stream:  opts.Verbose || opts.Stream,
	}
}

// Compile builds the module. Success guarantees the binary exists on disk:
// toolchain exit status alone is not trusted.
func (c *Compiler) Compile(ctx context.Context, opts Options) error {
	if st, err := os.Stat(c.layout.ModuleDir); err != nil || !st.IsDir() {
		return werrors.MissingSourceDirectory(c.layout.ModuleDir)
	}

	_, _ = fmt.Fprintf(c.out, "  Building in %s mode...\n", opts.Mode())
	slog.Debug("Compiling wasm module", logfields.Stage(StageName), logfields.Mode(opts.Mode()), logfields.Path(c.layout.ModuleDir))

	if _, err := c.runner.Run(ctx, c.Command(opts)); err != nil {
		return werrors.CompileFailed(err).WithContext("dir", c.layout.ModuleDir)
	}

	if _, err := os.Stat(c.layout.Binary); err != nil {
		return werrors.ArtifactNotProduced(StageName, c.layout.Binary)
	}

	_, _ = fmt.Fprintf(c.out, "  Output: %s\n", c.layout.ModuleOutDir)
	return nil
}
