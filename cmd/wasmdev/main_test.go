package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/wasmdev/cmd/wasmdev/commands"
	"git.home.luguber.info/inful/wasmdev/internal/config"
	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
	"git.home.luguber.info/inful/wasmdev/internal/testutil"
)

type cliEnv struct {
	root   string
	out    *bytes.Buffer
	err    *bytes.Buffer
	runner *testutil.StubRunner
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		root:   t.TempDir(),
		out:    &bytes.Buffer{},
		err:    &bytes.Buffer{},
		runner: &testutil.StubRunner{},
	}
}

func (e *cliEnv) run(args ...string) int {
	g := &commands.Global{Ctx: context.Background(), Out: e.out, Err: e.err, Runner: e.runner}
	return run(g, append([]string{"-C", e.root}, args...))
}

func (e *cliEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestRun_BuildEmptyProject(t *testing.T) {
	env := newCLIEnv(t)

	code := env.run("build")

	require.Equal(t, werrors.ExitFailure, code)
	require.Empty(t, env.runner.Calls())
	require.Contains(t, env.out.String(), "Build failed in wasm stage")
	require.Contains(t, env.err.String(), "missing_source_directory")
}

func TestRun_VerifyOnlyStagedArtifactMissing(t *testing.T) {
	env := newCLIEnv(t)
	cfg := config.Default()
	layout := cfg.Layout(env.root)
	for _, p := range append([]string{layout.Binary, layout.Loader}, layout.KeySources...) {
		rel, err := filepath.Rel(env.root, p)
		require.NoError(t, err)
		env.write(t, rel, "x")
	}
	require.NoError(t, os.MkdirAll(layout.StaticDir, 0o755))

	code := env.run("verify")

	require.Equal(t, werrors.ExitFailure, code)
	require.Contains(t, env.out.String(), "✗ artifact staged")
	require.Contains(t, env.out.String(), "✓ binary present")
	require.Contains(t, env.out.String(), "wasmdev dev")
	require.Contains(t, env.err.String(), "verification_failed")
}

func TestRun_DotEnvSetsLogLevel(t *testing.T) {
	// Registers restoration of the variable; godotenv only sets unset variables.
	t.Setenv(config.LogLevelEnv, "")
	require.NoError(t, os.Unsetenv(config.LogLevelEnv))

	env := newCLIEnv(t)
	env.write(t, ".env", config.LogLevelEnv+"=debug\n")

	env.run("verify")

	require.Contains(t, env.err.String(), "Loaded environment file")
	require.Contains(t, env.err.String(), "Loaded project")
}

func TestRun_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.write(t, config.DefaultFileName, "dev:\n  port: 70000\n")

	code := env.run("verify")

	require.Equal(t, werrors.ExitConfigError, code)
	require.Contains(t, env.err.String(), "dev.port")
}

func TestRun_UnknownConfigKey(t *testing.T) {
	env := newCLIEnv(t)
	env.write(t, config.DefaultFileName, "modul:\n  dir: x\n")

	require.Equal(t, werrors.ExitConfigError, env.run("build"))
	require.Empty(t, env.runner.Calls())
}

func TestRun_UsageError(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, werrors.ExitConfigError, env.run("frobnicate"))
}

func TestRun_Version(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, werrors.ExitSuccess, env.run("--version"))
	require.Contains(t, env.out.String(), "wasmdev")
}

func TestRun_InspectWithoutBinary(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, werrors.ExitFailure, env.run("inspect"))
	require.Contains(t, env.err.String(), "dependency_missing")
}

func TestRun_InspectUnknownRegion(t *testing.T) {
	env := newCLIEnv(t)

	require.Equal(t, werrors.ExitConfigError, env.run("inspect", "--region", "sidebar"))
	require.Contains(t, env.err.String(), "sidebar")
}

func TestRun_InspectRegion(t *testing.T) {
	env := newCLIEnv(t)
	layout := config.Default().Layout(env.root)
	rel, err := filepath.Rel(env.root, layout.Binary)
	require.NoError(t, err)
	// Magic and version only: a module with no exports.
	env.write(t, rel, "\x00asm\x01\x00\x00\x00")

	require.Equal(t, werrors.ExitSuccess, env.run("inspect", "--region", "workspace"))
	require.Contains(t, env.out.String(), "workspace: missing lifecycle exports")
}

func TestRun_MetricsFile(t *testing.T) {
	env := newCLIEnv(t)
	metricsPath := filepath.Join(env.root, "metrics.prom")

	require.Equal(t, werrors.ExitFailure, env.run("--metrics-file", metricsPath, "build"))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "wasmdev_build_outcomes_total")
}
