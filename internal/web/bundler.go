// Package web typechecks and bundles the application shell and places the
// compiled module next to it.
package web

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
	"git.home.luguber.info/inful/wasmdev/internal/stage"
	"git.home.luguber.info/inful/wasmdev/internal/toolchain"
)

// StageName identifies this stage in results, logs and metrics.
const StageName = "web"

// Options configures one bundling run. Passed by value; never mutated.
type Options struct {
	Mode          config.BuildMode
	Verbose       bool
	SkipTypecheck bool
}

// Bundler runs tsc and bun against the application source tree.
type Bundler struct {
	cfg    *config.Config
	layout config.Layout
	runner toolchain.Runner
	copier stage.Copier
	out    io.Writer
}

// NewBundler wires a bundler for the given project layout.
func NewBundler(cfg *config.Config, layout config.Layout, runner toolchain.Runner) *Bundler {
	return &Bundler{cfg: cfg, layout: layout, runner: runner, copier: stage.New(), out: os.Stdout}
}

// WithOutput redirects progress lines.
func (b *Bundler) WithOutput(w io.Writer) *Bundler {
	if w != nil {
		b.out = w
	}
	return b
}

// WithCopier replaces the filesystem stager.
func (b *Bundler) WithCopier(c stage.Copier) *Bundler {
	if c != nil {
		b.copier = c
	}
	return b
}

// Artifacts lists what a successful bundle leaves in the distribution directory.
func (b *Bundler) Artifacts() []artifact.Artifact {
	return []artifact.Artifact{
		{Name: "distribution directory", Path: b.layout.DistDir},
		{Name: "application shell", Path: b.layout.DistShell},
		{Name: "distributed wasm binary", Path: b.layout.DistBinary},
	}
}

// TypecheckCommand returns the tsc invocation.
func (b *Bundler) TypecheckCommand(opts Options) toolchain.Command {
	return toolchain.Command{
		Program: b.cfg.Tools.TSC,
		Args:    []string{"--project", b.layout.TSConfig, "--noEmit"},
		Dir:     b.layout.Root,
		Stream:  opts.Verbose,
	}
}

// BundleCommand returns the bun build invocation.
func (b *Bundler) BundleCommand(opts Options) toolchain.Command {
	args := []string{"build", b.layout.WebEntry, "--outdir=" + b.layout.DistDir}
	if opts.Mode.Minify() {
		args = append(args, "--minify")
	}
	args = append(args, "--target=browser", "--splitting")
	return toolchain.Command{
		Program: b.cfg.Tools.Bun,
		Args:    args,
		Dir:     b.layout.Root,
		Stream:  opts.Verbose,
	}
}

// Bundle runs typecheck, bundle and binary copy in that order. Each sub-step
// stops the run on failure.
func (b *Bundler) Bundle(ctx context.Context, opts Options) error {
	if !opts.SkipTypecheck {
		_, _ = fmt.Fprintln(b.out, "  Running TypeScript checks...")
		if _, err := b.runner.Run(ctx, b.TypecheckCommand(opts)); err != nil {
			return werrors.TypecheckFailed(err).WithContext("tsconfig", b.layout.TSConfig)
		}
	} else {
		slog.Debug("Skipping typecheck", logfields.Stage(StageName))
	}

	_, _ = fmt.Fprintln(b.out, "  Bundling application...")
	if err := os.MkdirAll(b.layout.DistDir, 0o755); err != nil {
		return werrors.BundleFailed(fmt.Errorf("create dist directory: %w", err)).WithContext("path", b.layout.DistDir)
	}
	if _, err := b.runner.Run(ctx, b.BundleCommand(opts)); err != nil {
		return werrors.BundleFailed(err).WithContext("entry", b.layout.WebEntry)
	}
	scripts, err := ShellScripts(b.layout.DistShell)
	if err != nil {
		return werrors.BundleFailed(err).WithContext("path", b.layout.DistShell)
	}
	slog.Debug("Bundled application shell", logfields.Path(b.layout.DistShell), "scripts", scripts)

	_, _ = fmt.Fprintln(b.out, "  Copying WASM files...")
	if st, err := os.Stat(b.layout.ModuleOutDir); err != nil || !st.IsDir() {
		return werrors.DependencyMissing(b.layout.ModuleOutDir, "run the module build first")
	}
	if _, err := b.copier.Stage(b.layout.Binary, b.layout.DistDir); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(b.out, "  Output: %s\n", b.layout.DistDir)
	return nil
}
