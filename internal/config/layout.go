package config

import "path/filepath"

// Layout holds the absolute paths every stage works against. It is derived
// once from a Config and a project root and never changes afterwards.
type Layout struct {
	Root string

	ModuleDir    string // module source package
	ModuleOutDir string // toolchain output directory
	Binary       string // <out>/<name>_bg.wasm
	Loader       string // <out>/<name>.js

	WebDir   string
	WebEntry string
	TSConfig string

	StaticDir    string // dev-session staging target
	StagedBinary string

	DistDir    string
	DistShell  string
	DistBinary string

	KeySources []string
	LockFile   string
}

// BinaryName is the file name of the compiled module.
func (c *Config) BinaryName() string { return c.Module.Name + "_bg.wasm" }

// LoaderName is the file name of the generated JS loader.
func (c *Config) LoaderName() string { return c.Module.Name + ".js" }

// Layout resolves all paths against root.
func (c *Config) Layout(root string) Layout {
	abs := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }

	moduleDir := abs(c.Module.Dir)
	outDir := filepath.Join(moduleDir, filepath.FromSlash(c.Module.OutputDir))
	webDir := abs(c.Web.Dir)
	staticDir := abs(c.Web.StaticDir)
	distDir := abs(c.Web.DistDir)

	keys := make([]string, 0, len(c.Web.KeySources))
	for _, k := range c.Web.KeySources {
		keys = append(keys, abs(k))
	}

	return Layout{
		Root:         root,
		ModuleDir:    moduleDir,
		ModuleOutDir: outDir,
		Binary:       filepath.Join(outDir, c.BinaryName()),
		Loader:       filepath.Join(outDir, c.LoaderName()),
		WebDir:       webDir,
		WebEntry:     filepath.Join(webDir, filepath.FromSlash(c.Web.Entry)),
		TSConfig:     filepath.Join(webDir, filepath.FromSlash(c.Web.TSConfig)),
		StaticDir:    staticDir,
		StagedBinary: filepath.Join(staticDir, c.BinaryName()),
		DistDir:      distDir,
		DistShell:    filepath.Join(distDir, "index.html"),
		DistBinary:   filepath.Join(distDir, c.BinaryName()),
		KeySources:   keys,
		LockFile:     abs(c.Dev.LockFile),
	}
}
