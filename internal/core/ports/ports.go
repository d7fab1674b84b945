package ports

import (
	"extcheck/internal/engine/component"
	"extcheck/internal/engine/composer"
	"extcheck/internal/engine/index"
	"iter"
)

// TypeExistenceProbe answers whether a class, interface or trait exists.
type TypeExistenceProbe interface {
	Exists(name string) bool
}

// TypeIntrospector exposes structural facts about named types.
type TypeIntrospector interface {
	Introspect(name string) (*index.TypeInfo, error)
	// ResolveSubstitution returns the registered preference for name, or "".
	ResolveSubstitution(name string) string
	IsAbstract(name string) bool
	IsInterface(name string) bool
	IsInstantiable(name string) bool
	IsTrait(name string) bool
}

// ModuleKnowledgeBase answers whether a module is installed.
type ModuleKnowledgeBase interface {
	IsKnownModule(name string) bool
}

// PackageMetadataSource lists installed Composer packages.
type PackageMetadataSource interface {
	InstalledPackages() ([]composer.InstalledPackage, error)
	component.VersionSource
}

// ManifestReader reads the require section of a composer.json.
type ManifestReader interface {
	ReadRequirements(path string) (map[string]string, error)
}

// ImportScanner lists the class names a source file imports.
type ImportScanner interface {
	ScanFile(path string) (iter.Seq[string], error)
}

// ContentScanner runs pattern detectors over raw file text.
type ContentScanner interface {
	Scan(text string) []string
}

// FileReader reads whole source files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// ComponentFactory builds module and library components.
type ComponentFactory interface {
	FromModuleName(name string) component.Component
	FromLibrary(vendor, pkg string) component.Component
}
