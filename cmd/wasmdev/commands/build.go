package commands

import (
	"fmt"

	"git.home.luguber.info/inful/wasmdev/internal/build"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
	"git.home.luguber.info/inful/wasmdev/internal/web"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dev      bool `help:"Development mode: no release optimizations, no minification."`
	SkipWasm bool `name:"skip-wasm" help:"Do not compile the module."`
	SkipWeb  bool `name:"skip-web" help:"Do not bundle the web application."`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	orch := build.NewOrchestrator(
		wasm.NewCompiler(p.cfg, p.layout, g.Runner).WithOutput(g.Out),
		web.NewBundler(p.cfg, p.layout, g.Runner).WithOutput(g.Out),
	).WithRecorder(g.Recorder()).WithOutput(g.Out).WithManifest(p.layout)

	_, err = orch.Run(g.Ctx, build.Options{
		Mode:     config.ModeFromDevFlag(b.Dev),
		SkipWasm: b.SkipWasm,
		SkipWeb:  b.SkipWeb,
		Verbose:  root.Verbose,
	})
	return err
}

// BuildWasmCmd implements the 'build-wasm' command.
type BuildWasmCmd struct {
	Dev bool `help:"Compile with --dev instead of --release."`
}

func (b *BuildWasmCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	// A pipeline run with the web stage skipped keeps metrics and artifact
	// checks identical to a full build.
	orch := build.NewOrchestrator(
		wasm.NewCompiler(p.cfg, p.layout, g.Runner).WithOutput(g.Out),
		web.NewBundler(p.cfg, p.layout, g.Runner),
	).WithRecorder(g.Recorder()).WithOutput(g.Out)

	_, err = orch.Run(g.Ctx, build.Options{Mode: config.ModeFromDevFlag(b.Dev), SkipWeb: true, Verbose: root.Verbose})
	return err
}

// BuildWebCmd implements the 'build-web' command.
type BuildWebCmd struct {
	Dev           bool `help:"Development mode: no minification."`
	SkipTypecheck bool `name:"skip-typecheck" help:"Do not run tsc before bundling."`
}

func (b *BuildWebCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	mode := config.ModeFromDevFlag(b.Dev)
	bundler := web.NewBundler(p.cfg, p.layout, g.Runner).WithOutput(g.Out)
	if err := bundler.Bundle(g.Ctx, web.Options{Mode: mode, Verbose: root.Verbose, SkipTypecheck: b.SkipTypecheck}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Web build (%s) complete\n", mode)
	return nil
}
