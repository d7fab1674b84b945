package composer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

type InstalledPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Type        string `json:"type,omitempty"`
	InstallPath string `json:"install-path,omitempty"`
}

// PackageCache holds the installed package list for one analysis run. The
// caller owns it and decides its lifetime. Failed loads are not cached.
type PackageCache struct {
	mu       sync.Mutex
	packages []InstalledPackage
	loaded   bool
}

func NewPackageCache() *PackageCache {
	return &PackageCache{}
}

// Get returns the cached list, calling load on first use.
func (c *PackageCache) Get(load func() ([]InstalledPackage, error)) ([]InstalledPackage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.packages, nil
	}
	packages, err := load()
	if err != nil {
		return nil, err
	}
	c.packages, c.loaded = packages, true
	return packages, nil
}

func (c *PackageCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages, c.loaded = nil, false
}

// CLI runs `composer show` in a project directory.
type CLI struct {
	Binary string
	Dir    string
}

// Show returns the packages reported by `composer show --format=json`.
func (c CLI) Show() ([]InstalledPackage, error) {
	binary := c.Binary
	if binary == "" {
		binary = "composer"
	}
	cmd := exec.Command(binary, "show", "--format=json")
	cmd.Dir = c.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s show: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
	}

	var payload struct {
		Installed []InstalledPackage `json:"installed"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode %s show output: %w", binary, err)
	}
	return payload.Installed, nil
}

// InstalledSource lists installed packages from vendor/composer/installed.json,
// falling back to the composer binary when configured.
type InstalledSource struct {
	path  string
	cli   *CLI
	cache *PackageCache
}

type Option func(*InstalledSource)

// WithCLI enables the `composer show` fallback.
func WithCLI(cli CLI) Option {
	return func(s *InstalledSource) { s.cli = &cli }
}

func NewInstalledSource(installedJSON string, cache *PackageCache, opts ...Option) *InstalledSource {
	if cache == nil {
		cache = NewPackageCache()
	}
	s := &InstalledSource{path: installedJSON, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InstalledSource) InstalledPackages() ([]InstalledPackage, error) {
	return s.cache.Get(s.load)
}

// VersionByPackage returns the installed version of name, or "" when unknown.
func (s *InstalledSource) VersionByPackage(name string) string {
	packages, err := s.InstalledPackages()
	if err != nil {
		slog.Debug("installed packages unavailable", "package", name, "error", err)
		return ""
	}
	for _, p := range packages {
		if strings.EqualFold(p.Name, name) {
			return p.Version
		}
	}
	return ""
}

func (s *InstalledSource) load() ([]InstalledPackage, error) {
	packages, err := ReadInstalled(s.path)
	if err == nil {
		return packages, nil
	}
	if s.cli == nil {
		return nil, err
	}
	slog.Debug("falling back to composer show", "path", s.path, "error", err)
	return s.cli.Show()
}

// ReadInstalled decodes an installed.json file in either the Composer 1 layout
// (a bare array) or the Composer 2 layout ({"packages": [...]}).
func ReadInstalled(path string) ([]InstalledPackage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeInstalled(content)
}

func decodeInstalled(content []byte) ([]InstalledPackage, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("installed package list is empty")
	}

	if trimmed[0] == '[' {
		var packages []InstalledPackage
		if err := json.Unmarshal(trimmed, &packages); err != nil {
			return nil, fmt.Errorf("decode installed packages: %w", err)
		}
		return packages, nil
	}

	var doc struct {
		Packages []InstalledPackage `json:"packages"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode installed packages: %w", err)
	}
	return doc.Packages, nil
}
