// Package toolchain runs the external programs the pipeline depends on
// (wasm-pack, tsc, bun). Only success/failure and captured diagnostics are
// modeled; the programs themselves are opaque.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/wasmdev/internal/logfields"
)

// ErrToolNotFound indicates the program was not detected on PATH.
var ErrToolNotFound = errors.New("tool not found on PATH")

// Command describes one external process invocation.
type Command struct {
	Program string
	Args    []string
	Dir     string            // working directory; empty means current
	Env     map[string]string // appended to the current environment
	Stream  bool              // tee output to the runner's writers instead of staying quiet
}

func (c Command) String() string {
	return strings.TrimSpace(c.Program + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns the most useful diagnostic text; tools write errors to either stream.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	out := strings.TrimSpace(r.Stdout)
	errOut := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// Runner abstracts process execution so stages can be exercised with stubs.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExitError reports a non-zero exit together with captured diagnostics.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: exit code %d: %s", e.Command, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("%s: exit code %d", e.Command, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner invokes programs with os/exec, one at a time, blocking until exit.
type ExecRunner struct {
	stdout   io.Writer
	stderr   io.Writer
	lookPath func(string) (string, error)
}

// NewExecRunner creates a runner streaming to the process stdout/stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{stdout: os.Stdout, stderr: os.Stderr, lookPath: exec.LookPath}
}

// WithWriters overrides where streamed output goes.
func (r *ExecRunner) WithWriters(stdout, stderr io.Writer) *ExecRunner {
	if stdout != nil {
		r.stdout = stdout
	}
	if stderr != nil {
		r.stderr = stderr
	}
	return r
}

// Run executes cmd and waits for it. A non-zero exit returns *ExitError.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	path, err := r.lookPath(c.Program)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, c.Program, err)
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdout = io.MultiWriter(&stdout, r.stdout)
		cmd.Stderr = io.MultiWriter(&stderr, r.stderr)
		cmd.Stdin = os.Stdin
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	slog.Debug("Running external command", logfields.Program(c.Program), logfields.Args(c.Args), logfields.Path(c.Dir))
	runErr := cmd.Run()

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if res.Stdout != "" && !c.Stream {
		slog.Debug("command stdout", logfields.Program(c.Program), "output", res.Stdout)
	}

	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		res.ExitCode = -1
	}
	return res, &ExitError{
		Command:  c.String(),
		ExitCode: res.ExitCode,
		Output:   res.Output(),
		Err:      runErr,
	}
}
