// Package modules knows which application modules are installed, discovered
// from registration.php files or listed in configuration.
package modules

import (
	"extcheck/internal/engine/source"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

const RegistrationFile = "registration.php"

var registrationPattern = regexp.MustCompile(
	`ComponentRegistrar::register\(\s*[\\\w]*ComponentRegistrar::MODULE\s*,\s*['"]([A-Za-z0-9]+_[A-Za-z0-9]+)['"]`)

type Registry struct {
	mu      sync.RWMutex
	modules map[string]string // module name -> directory, empty when unknown
	pinned  map[string]string // registered explicitly, kept across Discover
}

// NewRegistry returns a registry seeded with known module names.
func NewRegistry(known ...string) *Registry {
	r := &Registry{modules: make(map[string]string), pinned: make(map[string]string)}
	for _, name := range known {
		r.Register(name, "")
	}
	return r
}

// Register adds a module. A non-empty dir replaces an empty one.
func (r *Registry) Register(name, dir string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	put(r.pinned, name, dir)
	put(r.modules, name, dir)
}

func put(m map[string]string, name, dir string) {
	if existing, ok := m[name]; ok && existing != "" && dir == "" {
		return
	}
	m[name] = dir
}

// Discover replaces the discovered modules with those declared by a
// registration.php under roots. Explicitly registered modules are kept.
// It returns the number of modules found.
func (r *Registry) Discover(w *source.Walker, roots []string) (int, error) {
	files, err := w.Walk(roots, func(path string) bool {
		return filepath.Base(path) == RegistrationFile
	})
	if err != nil {
		return 0, fmt.Errorf("discover modules: %w", err)
	}

	found := 0
	discovered := make(map[string]string)
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read registration file", "path", path, "error", err)
			continue
		}
		for _, name := range ParseRegistration(content) {
			discovered[name] = filepath.Clean(filepath.Dir(path))
			found++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]string, len(r.pinned)+len(discovered))
	for name, dir := range r.pinned {
		r.modules[name] = dir
	}
	for name, dir := range discovered {
		put(r.modules, name, dir)
	}
	return found, nil
}

// ParseRegistration returns the module names registered by a registration.php body.
func ParseRegistration(content []byte) []string {
	var names []string
	for _, m := range registrationPattern.FindAllSubmatch(content, -1) {
		names = append(names, string(m[1]))
	}
	return names
}

func (r *Registry) IsKnownModule(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

// ModuleDir returns the directory of a discovered module.
func (r *Registry) ModuleDir(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dir, ok := r.modules[name]
	return dir, ok && dir != ""
}

// ModuleForPath returns the module whose directory most closely contains path.
func (r *Registry) ModuleForPath(path string) (string, bool) {
	path = filepath.Clean(path)
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestLen := "", -1
	for name, dir := range r.modules {
		if dir == "" {
			continue
		}
		if path != dir && !strings.HasPrefix(path, dir+string(filepath.Separator)) {
			continue
		}
		if len(dir) > bestLen {
			best, bestLen = name, len(dir)
		}
	}
	return best, bestLen >= 0
}

// Modules returns the sorted module names.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
