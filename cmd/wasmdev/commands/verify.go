package commands

import (
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/verify"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Exports bool `help:"Also check that the module exports every lifecycle and control function."`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	p, err := root.loadProject()
	if err != nil {
		return err
	}
	list := verify.New(p.layout).Run(g.Ctx, verify.Options{Exports: v.Exports})
	verify.Render(g.Out, list, p.cfg.Dev.Port)
	if !list.Passed() {
		return werrors.VerificationFailed(len(list.Failed()))
	}
	return nil
}
