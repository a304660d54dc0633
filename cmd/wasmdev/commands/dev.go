package commands

import (
	"git.home.luguber.info/inful/wasmdev/internal/dev"
	"git.home.luguber.info/inful/wasmdev/internal/wasm"
)

// DevCmd implements the 'dev' command.
type DevCmd struct {
	Watch     bool `help:"Recompile and restage the module when its sources change."`
	ForceLock bool `name:"force-lock" help:"Break a staging lock left behind by another session."`
}

func (d *DevCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	compiler := wasm.NewCompiler(p.cfg, p.layout, g.Runner).WithOutput(g.Out)
	session := dev.NewSession(p.cfg, p.layout, compiler, g.Runner).
		WithOutput(g.Out).
		WithRecorder(g.Recorder())
	return session.Run(g.Ctx, dev.Options{Verbose: root.Verbose, Watch: d.Watch, ForceLock: d.ForceLock})
}
