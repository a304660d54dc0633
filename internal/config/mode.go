package config

// BuildMode selects optimization for the compiler and bundler. Exactly one mode
// is active per pipeline invocation.
type BuildMode string

const (
	ModeDevelopment BuildMode = "development"
	ModeProduction  BuildMode = "production"
)

// ModeFromDevFlag maps the --dev CLI flag to a mode; absence implies production.
func ModeFromDevFlag(dev bool) BuildMode {
	if dev {
		return ModeDevelopment
	}
	return ModeProduction
}

// IsRelease reports whether the module should be compiled with release optimizations.
func (m BuildMode) IsRelease() bool { return m == ModeProduction }

// Minify reports whether the bundler should minify output.
func (m BuildMode) Minify() bool { return m == ModeProduction }

func (m BuildMode) String() string { return string(m) }
