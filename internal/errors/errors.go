// Package errors provides a lightweight structured error type (BuildError)
// for kind/category-based classification of pipeline failures in the CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of an error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External toolchain errors
	CategoryToolchain ErrorCategory = "toolchain"

	// Build and processing errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// Kind identifies one entry of the pipeline failure taxonomy. A Kind is itself
// an error so callers can write errors.Is(err, errors.KindCompileFailed).
type Kind string

const (
	KindMissingSourceDirectory Kind = "missing_source_directory"
	KindArtifactNotProduced    Kind = "artifact_not_produced"
	KindCompileFailed          Kind = "compile_failed"
	KindTypecheckFailed        Kind = "typecheck_failed"
	KindBundleFailed           Kind = "bundle_failed"
	KindDependencyMissing      Kind = "dependency_missing"
	KindStagingFailed          Kind = "staging_failed"
	KindServerLaunchFailed     Kind = "server_launch_failed"
	KindVerificationFailed     Kind = "verification_failed"
	KindInvalidConfig          Kind = "invalid_config"
	KindInternal               Kind = "internal"
)

func (k Kind) Error() string { return string(k) }

// BuildError is a structured error with kind, category and context
type BuildError struct {
	Kind     Kind          `json:"kind"`
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BuildError
type ContextFields map[string]any

// Error implements the error interface
func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error's Kind.
func (e *BuildError) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return false
}

// WithContext adds context information to the error
func (e *BuildError) WithContext(key string, value any) *BuildError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BuildError
func New(kind Kind, category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Kind:     kind,
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BuildError that wraps an existing error
func Wrap(err error, kind Kind, category ErrorCategory, severity ErrorSeverity, message string) *BuildError {
	return &BuildError{
		Kind:     kind,
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As extracts the outermost BuildError from an error chain.
func As(err error) (*BuildError, bool) {
	var be *BuildError
	if stdErrors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := As(err); ok {
		return be.Category == category
	}
	return false
}

// KindOf extracts the kind from an error, or returns KindInternal if not a BuildError
func KindOf(err error) Kind {
	if be, ok := As(err); ok {
		return be.Kind
	}
	return KindInternal
}
