package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyMode       = "mode"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyProgram    = "program"
	KeyArgs       = "args"
	KeyExitCode   = "exit_code"
	KeyPort       = "port"
	KeyCheck      = "check"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func State(s string) slog.Attr           { return slog.String(KeyState, s) }
func Mode(m string) slog.Attr            { return slog.String(KeyMode, m) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Program(p string) slog.Attr         { return slog.String(KeyProgram, p) }
func Args(a []string) slog.Attr          { return slog.Any(KeyArgs, a) }
func ExitCode(code int) slog.Attr        { return slog.Int(KeyExitCode, code) }
func Port(p int) slog.Attr               { return slog.Int(KeyPort, p) }
func Check(name string) slog.Attr        { return slog.String(KeyCheck, name) }
func Elapsed(d time.Duration) slog.Attr  { return DurationMS(float64(d.Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
