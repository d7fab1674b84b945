package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version     int       `toml:"version"`
	ProjectRoot string    `toml:"project_root"`
	Paths       Paths     `toml:"paths"`
	Exclude     Exclude   `toml:"exclude"`
	Modules     Modules   `toml:"modules"`
	Inspector   Inspector `toml:"inspector"`
	Detectors   Detectors `toml:"detectors"`
	Composer    Composer  `toml:"composer"`
	Cache       Cache     `toml:"cache"`
	Output      Output    `toml:"output"`
	Metrics     Metrics   `toml:"metrics"`
	Watch       Watch     `toml:"watch"`
	History     History   `toml:"history"`
}

type Paths struct {
	// CodeDirs are indexed for type declarations, relative to the project root.
	CodeDirs []string `toml:"code_dirs"`
	// VendorDir is the dependency root used to attribute files to libraries.
	VendorDir     string   `toml:"vendor_dir"`
	DIFiles       []string `toml:"di_files"`
	InstalledJSON string   `toml:"installed_json"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Modules struct {
	Known             []string `toml:"known"`
	ScanRegistrations *bool    `toml:"scan_registrations"`
}

type Inspector struct {
	FactorySuffix        string   `toml:"factory_suffix"`
	DeprecationMarker    string   `toml:"deprecation_marker"`
	ArrayAccessInterface string   `toml:"array_access_interface"`
	BuiltinInterfaces    []string `toml:"builtin_interfaces"`
	UntypedContainers    []string `toml:"untyped_containers"`
	Workers              int      `toml:"workers"`
}

type Detectors struct {
	Disabled []string          `toml:"disabled"`
	Patterns []DetectorPattern `toml:"patterns"`
}

type DetectorPattern struct {
	Name  string `toml:"name"`
	Regex string `toml:"regex"`
}

type Composer struct {
	UseCLI bool   `toml:"use_cli"`
	Binary string `toml:"binary"`
}

type Cache struct {
	SourceEntries int `toml:"source_entries"`
}

type Output struct {
	Format string `toml:"format"`
}

type Metrics struct {
	Address      string `toml:"address"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML file at path, applies environment overrides and defaults,
// then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with environment overrides and every default applied.
func Default() *Config {
	var cfg Config
	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}

	if len(cfg.Paths.CodeDirs) == 0 {
		cfg.Paths.CodeDirs = []string{"app/code", "vendor"}
	}
	if strings.TrimSpace(cfg.Paths.VendorDir) == "" {
		cfg.Paths.VendorDir = "vendor"
	}
	if len(cfg.Paths.DIFiles) == 0 {
		cfg.Paths.DIFiles = []string{"**/etc/di.xml", "**/etc/*/di.xml"}
	}
	if strings.TrimSpace(cfg.Paths.InstalledJSON) == "" {
		cfg.Paths.InstalledJSON = filepath.Join(cfg.Paths.VendorDir, "composer", "installed.json")
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "node_modules", "Test", "Tests", "tests", "dev"}
	}

	if cfg.Modules.ScanRegistrations == nil {
		enabled := true
		cfg.Modules.ScanRegistrations = &enabled
	}

	if strings.TrimSpace(cfg.Inspector.FactorySuffix) == "" {
		cfg.Inspector.FactorySuffix = "Factory"
	}
	if strings.TrimSpace(cfg.Inspector.DeprecationMarker) == "" {
		cfg.Inspector.DeprecationMarker = "@deprecated"
	}
	if strings.TrimSpace(cfg.Inspector.ArrayAccessInterface) == "" {
		cfg.Inspector.ArrayAccessInterface = "ArrayAccess"
	}
	if cfg.Inspector.Workers <= 0 {
		cfg.Inspector.Workers = 4
	}

	if strings.TrimSpace(cfg.Composer.Binary) == "" {
		cfg.Composer.Binary = "composer"
	}
	if cfg.Cache.SourceEntries <= 0 {
		cfg.Cache.SourceEntries = 512
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join(".extcheck", "history.db")
	}
}

// ResolvePath makes p absolute against the configured project root.
func (c *Config) ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	root := c.ProjectRoot
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Join(root, p)
}
