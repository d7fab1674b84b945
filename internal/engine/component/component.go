// Package component models the units dependencies are attributed to: application
// modules and Composer library packages.
package component

import (
	"extcheck/internal/core/errors"
	"extcheck/internal/engine/composer"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

type Type string

const (
	TypeModule  Type = "module"
	TypeLibrary Type = "library"
)

// Component is an immutable owner of types.
type Component struct {
	name           string
	typ            Type
	packageName    string
	packageVersion string
}

func (c Component) Name() string           { return c.name }
func (c Component) Type() Type             { return c.typ }
func (c Component) PackageName() string    { return c.packageName }
func (c Component) PackageVersion() string { return c.packageVersion }
func (c Component) String() string         { return c.name }
func (c Component) IsZero() bool           { return c == Component{} }

// Equal is true when all four fields match.
func (c Component) Equal(other Component) bool {
	return c == other
}

// ModuleDirectory locates the directory of a registered module.
type ModuleDirectory interface {
	ModuleDir(name string) (string, bool)
}

// VersionSource reports installed package versions.
type VersionSource interface {
	VersionByPackage(name string) string
}

// Attributor builds components, filling package metadata from the module's
// composer.json and the installed package list.
type Attributor struct {
	modules  ModuleDirectory
	versions VersionSource
	reader   *composer.Reader

	mu    sync.Mutex
	cache map[string]Component
}

// NewAttributor accepts nil collaborators; the matching metadata stays empty.
func NewAttributor(modules ModuleDirectory, versions VersionSource) *Attributor {
	return &Attributor{
		modules:  modules,
		versions: versions,
		reader:   composer.NewReader(),
		cache:    make(map[string]Component),
	}
}

// Reset drops the cached components so package metadata is read again.
func (a *Attributor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[string]Component)
}

// FromModuleName returns the module component called name.
func (a *Attributor) FromModuleName(name string) Component {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.cache["module:"+name]; ok {
		return c
	}

	c := Component{name: name, typ: TypeModule}
	if a.modules != nil {
		if dir, ok := a.modules.ModuleDir(name); ok {
			manifest, err := a.reader.ReadManifest(filepath.Join(dir, composer.ManifestFile))
			if err != nil {
				slog.Debug("module manifest unavailable", "module", name, "error", err)
			} else {
				c.packageName = manifest.Name
				c.packageVersion = manifest.Version
			}
		}
	}
	if c.packageName != "" {
		if v := a.version(c.packageName); v != "" {
			c.packageVersion = v
		}
	}

	a.cache["module:"+name] = c
	return c
}

// FromLibrary returns the library component for the Composer package vendor/pkg.
func (a *Attributor) FromLibrary(vendor, pkg string) Component {
	name := vendor + "/" + pkg
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.cache["library:"+name]; ok {
		return c
	}
	c := Component{
		name:           name,
		typ:            TypeLibrary,
		packageName:    name,
		packageVersion: a.version(name),
	}
	a.cache["library:"+name] = c
	return c
}

// FromPackage splits a "vendor/package" name and delegates to FromLibrary.
func (a *Attributor) FromPackage(name string) (Component, error) {
	vendor, pkg, ok := strings.Cut(name, "/")
	if !ok || vendor == "" || pkg == "" || strings.Contains(pkg, "/") {
		return Component{}, errors.AddContext(
			errors.New(errors.CodeValidationError, "package name must be vendor/package"),
			errors.CtxPackage, name)
	}
	return a.FromLibrary(vendor, pkg), nil
}

func (a *Attributor) version(pkg string) string {
	if a.versions == nil {
		return ""
	}
	return a.versions.VersionByPackage(pkg)
}
