// Package verify inspects a project tree and reports, check by check, whether
// the development environment is ready. It never modifies the filesystem.
package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/wasmdev/internal/config"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
	"git.home.luguber.info/inful/wasmdev/internal/module"
)

// Check names, in report order.
const (
	CheckBinary     = "binary present"
	CheckLoader     = "loader present"
	CheckStaticDir  = "static directory present"
	CheckStaged     = "artifact staged"
	CheckKeySources = "key source files present"
	CheckExports    = "module exports complete"
)

// Remedy commands printed next to failed checks.
const (
	RemedyBuildModule = "wasmdev build-wasm"
	RemedyDev         = "wasmdev dev"
)

// Check is one entry of the checklist.
type Check struct {
	Name   string
	Passed bool
	Detail string // what is missing, for failed checks
	Remedy string // corrective command, for failed checks
}

// Checklist is the ordered result of a verification run.
type Checklist []Check

// Passed is the logical AND of every check.
func (c Checklist) Passed() bool {
	for _, ch := range c {
		if !ch.Passed {
			return false
		}
	}
	return true
}

// Failed returns the failed entries in order.
func (c Checklist) Failed() []Check {
	var out []Check
	for _, ch := range c {
		if !ch.Passed {
			out = append(out, ch)
		}
	}
	return out
}

// Options selects optional checks.
type Options struct {
	Exports bool // also inspect the binary's export section
}

// Verifier runs the checks against a resolved layout.
type Verifier struct {
	layout config.Layout
}

// New creates a verifier.
func New(layout config.Layout) *Verifier {
	return &Verifier{layout: layout}
}

// Run performs every check in fixed order. A failing check never prevents the
// following ones from running.
func (v *Verifier) Run(ctx context.Context, opts Options) Checklist {
	l := v.layout
	list := Checklist{
		fileCheck(CheckBinary, l.Binary, RemedyBuildModule),
		fileCheck(CheckLoader, l.Loader, RemedyBuildModule),
		dirCheck(CheckStaticDir, l.StaticDir, RemedyDev),
		fileCheck(CheckStaged, l.StagedBinary, RemedyDev),
		v.keySources(),
	}
	if opts.Exports {
		list = append(list, v.exports(ctx))
	}
	for _, c := range list {
		slog.Debug("Verification check", logfields.Check(c.Name), slog.Bool("passed", c.Passed), slog.String("detail", c.Detail))
	}
	return list
}

func fileCheck(name, path, remedy string) Check {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return Check{Name: name, Detail: "missing " + path, Remedy: remedy}
	case info.IsDir():
		return Check{Name: name, Detail: path + " is a directory", Remedy: remedy}
	default:
		return Check{Name: name, Passed: true}
	}
}

func dirCheck(name, path, remedy string) Check {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Check{Name: name, Detail: "missing directory " + path, Remedy: remedy}
	}
	return Check{Name: name, Passed: true}
}

func (v *Verifier) keySources() Check {
	var missing []string
	for _, p := range v.layout.KeySources {
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, v.rel(p))
		}
	}
	if len(missing) == 0 {
		return Check{Name: CheckKeySources, Passed: true}
	}
	return Check{
		Name:   CheckKeySources,
		Detail: "missing " + strings.Join(missing, ", "),
		Remedy: "git restore -- " + strings.Join(missing, " "),
	}
}

func (v *Verifier) exports(ctx context.Context) Check {
	inst, err := module.NewLoader(v.layout.Binary).Init(ctx)
	if err != nil {
		return Check{Name: CheckExports, Detail: err.Error(), Remedy: RemedyBuildModule}
	}
	if missing := inst.MissingExports(); len(missing) > 0 {
		return Check{Name: CheckExports, Detail: "missing exports " + strings.Join(missing, ", "), Remedy: RemedyBuildModule}
	}
	return Check{Name: CheckExports, Passed: true}
}

func (v *Verifier) rel(p string) string {
	if r, err := filepath.Rel(v.layout.Root, p); err == nil {
		return filepath.ToSlash(r)
	}
	return p
}

// Render prints the checklist and, when something failed, the commands that
// fix it.
func Render(w io.Writer, list Checklist, port int) {
	_, _ = fmt.Fprintln(w, "Verifying project setup...")
	_, _ = fmt.Fprintln(w)
	for _, c := range list {
		if c.Passed {
			_, _ = fmt.Fprintf(w, "✓ %s\n", c.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "✗ %s - %s (run %q)\n", c.Name, c.Detail, c.Remedy)
	}
	_, _ = fmt.Fprintln(w, "\n---")

	if !list.Passed() {
		_, _ = fmt.Fprintln(w, "\nSome checks failed. Please run:")
		seen := map[string]bool{}
		for _, c := range list.Failed() {
			if !seen[c.Remedy] {
				seen[c.Remedy] = true
				_, _ = fmt.Fprintf(w, "  %s\n", c.Remedy)
			}
		}
		return
	}
	_, _ = fmt.Fprintln(w, "\nAll checks passed! You can now run:")
	_, _ = fmt.Fprintf(w, "  %s\n", RemedyDev)
	_, _ = fmt.Fprintf(w, "\nThe dev server will be available at http://localhost:%d\n", port)
}
