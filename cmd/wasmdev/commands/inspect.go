package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/module"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Region string `help:"Only report lifecycle availability for this region."`
}

func (i *InspectCmd) Run(g *Global, root *CLI) error {
	regions := module.Regions()
	if i.Region != "" {
		r, ok := module.ParseRegion(i.Region)
		if !ok {
			return werrors.ValidationFailed("region", fmt.Sprintf("unknown region %q", i.Region))
		}
		regions = []module.Region{r}
	}

	p, err := root.loadProject()
	if err != nil {
		return err
	}
	if _, err := os.Stat(p.layout.Binary); err != nil {
		return werrors.DependencyMissing(p.layout.Binary, "run the module build first")
	}
	inst, err := module.NewLoader(p.layout.Binary).Init(g.Ctx)
	if err != nil {
		return werrors.InternalError("failed to read module", err)
	}

	_, _ = fmt.Fprintf(g.Out, "%s (%d bytes, sha256 %s)\n\n", inst.Path, inst.Digest.Size, inst.Digest.SHA256)
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EXPORT\tKIND")
	for _, e := range inst.Exports {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Kind)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(g.Out, "\nRegions:")
	for _, r := range regions {
		status := "ok"
		if !inst.Supports(r) {
			status = "missing lifecycle exports"
		}
		_, _ = fmt.Fprintf(g.Out, "  %s: %s\n", r, status)
	}
	if missing := inst.MissingExports(); len(missing) > 0 {
		_, _ = fmt.Fprintf(g.Out, "\nMissing exports: %v\n", missing)
	}
	return nil
}
