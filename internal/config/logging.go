package config

import (
	"log/slog"
	"os"
	"strings"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "WASMDEV_LOG_LEVEL"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NormalizeLogLevel maps raw input onto a supported level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "warning":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// SlogLevel converts the level for handler options.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveLogLevel handles both the verbose flag and WASMDEV_LOG_LEVEL.
func ResolveLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return NormalizeLogLevel(os.Getenv(LogLevelEnv)).SlogLevel()
}
