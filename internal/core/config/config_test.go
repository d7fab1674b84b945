package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extcheck.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
project_root = "/srv/shop"

[paths]
code_dirs = ["app/code"]
vendor_dir = "lib/vendor"

[exclude]
dirs = [".git", "Test*"]

[modules]
known = ["Magento_Catalog"]

[inspector]
factory_suffix = "Builder"

[[detectors.patterns]]
name = "plugin_type"
regex = 'type="(?P<class>[^"]+)"'

[output]
format = "json"

[watch]
debounce = "750ms"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ProjectRoot != "/srv/shop" {
		t.Errorf("Expected project root /srv/shop, got %s", cfg.ProjectRoot)
	}
	if len(cfg.Paths.CodeDirs) != 1 || cfg.Paths.CodeDirs[0] != "app/code" {
		t.Errorf("Unexpected code dirs: %v", cfg.Paths.CodeDirs)
	}
	if cfg.Paths.InstalledJSON != filepath.Join("lib/vendor", "composer", "installed.json") {
		t.Errorf("Expected installed.json under vendor dir, got %s", cfg.Paths.InstalledJSON)
	}
	if cfg.Inspector.FactorySuffix != "Builder" {
		t.Errorf("Expected factory suffix Builder, got %s", cfg.Inspector.FactorySuffix)
	}
	if cfg.Inspector.DeprecationMarker != "@deprecated" {
		t.Errorf("Expected default deprecation marker, got %s", cfg.Inspector.DeprecationMarker)
	}
	if len(cfg.Detectors.Patterns) != 1 || cfg.Detectors.Patterns[0].Name != "plugin_type" {
		t.Errorf("Unexpected detector patterns: %v", cfg.Detectors.Patterns)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected json output, got %s", cfg.Output.Format)
	}
	if cfg.Watch.Debounce != 750*time.Millisecond {
		t.Errorf("Expected 750ms debounce, got %s", cfg.Watch.Debounce)
	}
	if cfg.Modules.ScanRegistrations == nil || !*cfg.Modules.ScanRegistrations {
		t.Error("Expected registration scanning enabled by default")
	}
	if got := cfg.ResolvePath("app/etc"); got != filepath.Join("/srv/shop", "app/etc") {
		t.Errorf("Unexpected resolved path %s", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Paths.VendorDir != "vendor" {
		t.Errorf("Expected vendor dir vendor, got %s", cfg.Paths.VendorDir)
	}
	if cfg.Inspector.FactorySuffix != "Factory" {
		t.Errorf("Expected factory suffix Factory, got %s", cfg.Inspector.FactorySuffix)
	}
	if cfg.Inspector.ArrayAccessInterface != "ArrayAccess" {
		t.Errorf("Expected ArrayAccess, got %s", cfg.Inspector.ArrayAccessInterface)
	}
	if cfg.Cache.SourceEntries != 512 {
		t.Errorf("Expected 512 source entries, got %d", cfg.Cache.SourceEntries)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("Expected 300ms debounce, got %s", cfg.Watch.Debounce)
	}
	if cfg.History.Enabled {
		t.Error("Expected history disabled by default")
	}
	if cfg.History.Path != filepath.Join(".extcheck", "history.db") {
		t.Errorf("Unexpected history path %s", cfg.History.Path)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EXTCHECK_PATHS_VENDOR_DIR", "lib")
	t.Setenv("EXTCHECK_INSPECTOR_WORKERS", "9")
	t.Setenv("EXTCHECK_COMPOSER_USE_CLI", "TRUE")
	t.Setenv("EXTCHECK_WATCH_DEBOUNCE", "2s")
	t.Setenv("EXTCHECK_CACHE_SOURCE_ENTRIES", "not-a-number")

	cfg, err := Load(writeConfig(t, "[output]\nformat = 'tsv'\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Paths.VendorDir != "lib" {
		t.Errorf("Expected vendor dir lib, got %s", cfg.Paths.VendorDir)
	}
	if cfg.Paths.InstalledJSON != filepath.Join("lib", "composer", "installed.json") {
		t.Errorf("Expected installed.json to follow the vendor override, got %s", cfg.Paths.InstalledJSON)
	}
	if cfg.Inspector.Workers != 9 {
		t.Errorf("Expected 9 workers, got %d", cfg.Inspector.Workers)
	}
	if !cfg.Composer.UseCLI {
		t.Error("Expected composer CLI enabled")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Expected 2s debounce, got %s", cfg.Watch.Debounce)
	}
	if cfg.Cache.SourceEntries != 512 {
		t.Errorf("Expected invalid override to be ignored, got %d", cfg.Cache.SourceEntries)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"version", "version = 3", "unsupported config version"},
		{"glob", "[exclude]\nfiles = [\"[\"]", "exclude.files[0]"},
		{"suffix", "[inspector]\nfactory_suffix = 'A\\\\B'", "factory_suffix"},
		{"detector name", "[[detectors.patterns]]\nregex = '(x)'", "name must not be empty"},
		{"detector group", "[[detectors.patterns]]\nname = 'x'\nregex = 'x'", "capture group"},
		{"detector dup", "[[detectors.patterns]]\nname = 'x'\nregex = '(x)'\n[[detectors.patterns]]\nname = 'x'\nregex = '(y)'", "duplicate detector"},
		{"format", "[output]\nformat = 'xml'", "output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
