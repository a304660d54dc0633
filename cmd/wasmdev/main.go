package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/wasmdev/cmd/wasmdev/commands"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(commands.NewGlobal(ctx), os.Args[1:])
	cancel()
	os.Exit(code)
}

// exitCode is raised by kong's exit hook so run can return instead of
// terminating the process (help, --version).
type exitCode int

func run(g *commands.Global, args []string) (code int) {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("wasmdev"),
		kong.Description("Build and serve a WebAssembly module with its web application shell."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
		kong.Writers(g.Out, g.Err),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		_, _ = fmt.Fprintf(g.Err, "wasmdev: %v\n", err)
		return werrors.ExitFailure
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(g.Err, "wasmdev: %v\n", err)
		return werrors.ExitConfigError
	}

	err = kctx.Run(cli)
	cli.Finish(g)
	return werrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).WithOutput(g.Err).Report(err)
}
