package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	werrors "git.home.luguber.info/inful/wasmdev/internal/errors"
)

// DefaultFileName is looked up in the project root when --config is not given.
const DefaultFileName = "wasmdev.yaml"

// Config represents the project layout and toolchain configuration.
type Config struct {
	Module ModuleConfig `yaml:"module"`
	Web    WebConfig    `yaml:"web"`
	Dev    DevConfig    `yaml:"dev"`
	Tools  ToolsConfig  `yaml:"tools"`
}

// ModuleConfig describes the binary module package.
type ModuleConfig struct {
	Dir       string `yaml:"dir"`        // module source directory, relative to root
	OutputDir string `yaml:"output_dir"` // output subdirectory inside Dir
	Name      string `yaml:"name"`       // module identifier used for artifact names
	Target    string `yaml:"target"`     // wasm-pack --target
}

// WebConfig describes the application shell.
type WebConfig struct {
	Dir        string   `yaml:"dir"`
	Entry      string   `yaml:"entry"`       // relative to Dir
	TSConfig   string   `yaml:"tsconfig"`    // relative to Dir
	StaticDir  string   `yaml:"static_dir"`  // relative to root
	DistDir    string   `yaml:"dist_dir"`    // relative to root
	KeySources []string `yaml:"key_sources"` // relative to root
}

// DevConfig describes the dev session.
type DevConfig struct {
	Port     int    `yaml:"port"`
	LockFile string `yaml:"lock_file"` // relative to root
}

// ToolsConfig names the external programs; useful for pinned or wrapped toolchains.
type ToolsConfig struct {
	WasmPack string `yaml:"wasm_pack"`
	TSC      string `yaml:"tsc"`
	Bun      string `yaml:"bun"`
}

// Default returns the configuration matching the standard project layout.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Module.Dir == "" {
		c.Module.Dir = "packages/wasm"
	}
	if c.Module.OutputDir == "" {
		c.Module.OutputDir = "pkg"
	}
	if c.Module.Name == "" {
		c.Module.Name = "wasm_layer_system"
	}
	if c.Module.Target == "" {
		c.Module.Target = "web"
	}
	if c.Web.Dir == "" {
		c.Web.Dir = "packages/web"
	}
	if c.Web.Entry == "" {
		c.Web.Entry = "index.html"
	}
	if c.Web.TSConfig == "" {
		c.Web.TSConfig = "tsconfig.json"
	}
	if c.Web.StaticDir == "" {
		c.Web.StaticDir = "packages/web/public"
	}
	if c.Web.DistDir == "" {
		c.Web.DistDir = "dist"
	}
	if len(c.Web.KeySources) == 0 {
		c.Web.KeySources = []string{
			"packages/web/src/lib/wasm-loader.ts",
			"packages/web/src/contexts/WasmContext.tsx",
		}
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = 3000
	}
	if c.Dev.LockFile == "" {
		c.Dev.LockFile = ".wasmdev/dev-session.lock"
	}
	if c.Tools.WasmPack == "" {
		c.Tools.WasmPack = "wasm-pack"
	}
	if c.Tools.TSC == "" {
		c.Tools.TSC = "tsc"
	}
	if c.Tools.Bun == "" {
		c.Tools.Bun = "bun"
	}
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		return werrors.ValidationFailed("dev.port", "must be between 1 and 65535")
	}
	if filepath.IsAbs(c.Module.OutputDir) || c.Module.OutputDir == "." {
		return werrors.ValidationFailed("module.output_dir", "must be a subdirectory of module.dir")
	}
	for field, p := range map[string]string{
		"module.dir":     c.Module.Dir,
		"web.dir":        c.Web.Dir,
		"web.static_dir": c.Web.StaticDir,
		"web.dist_dir":   c.Web.DistDir,
	} {
		if filepath.IsAbs(p) {
			return werrors.ValidationFailed(field, "must be relative to the project root")
		}
	}
	return nil
}

// Load reads configuration for the project rooted at root. An empty path
// means root/wasmdev.yaml, which may be absent; an explicit path must exist.
func Load(root, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, DefaultFileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return nil, werrors.ConfigInvalid(path, err)
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, werrors.ConfigInvalid(path, fmt.Errorf("parse yaml: %w", err))
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
