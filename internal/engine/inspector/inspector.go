// Package inspector discovers the types a PHP type depends on and attributes
// types to the module or library that owns them.
//
// Four signals feed the dependency list, in this order:
//
//   - constructor parameter types that do NOT currently resolve
//   - implemented interfaces that DO currently resolve, minus ArrayAccess
//   - classes imported by the defining file
//   - class names found by the content detectors in the defining file
//
// The first two filters are intentionally opposite. Results are not
// de-duplicated.
package inspector

import (
	"extcheck/internal/core/errors"
	"extcheck/internal/core/ports"
	"extcheck/internal/engine/component"
	"extcheck/internal/engine/index"
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/phpstd"
	"extcheck/internal/shared/observability"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	DefaultDeprecationMarker = "@deprecated"
	DefaultArrayAccess       = "ArrayAccess"
	DefaultDependencyRoot    = "vendor"
)

// DefaultUntypedContainers are declared types that say nothing about a class dependency.
var DefaultUntypedContainers = []string{"array", "iterable", "mixed", "object"}

type Options struct {
	FactorySuffix        string
	DeprecationMarker    string
	ArrayAccessInterface string
	// BuiltinInterfaces are never reported by the constructor signal.
	// Defaults to the SPL names plus the core iteration interfaces.
	BuiltinInterfaces []string
	UntypedContainers []string
	// DependencyRoot is the directory name libraries are installed under.
	DependencyRoot string
}

func (o Options) withDefaults() Options {
	if o.FactorySuffix == "" {
		o.FactorySuffix = DefaultFactorySuffix
	}
	if o.DeprecationMarker == "" {
		o.DeprecationMarker = DefaultDeprecationMarker
	}
	if o.ArrayAccessInterface == "" {
		o.ArrayAccessInterface = DefaultArrayAccess
	}
	if len(o.BuiltinInterfaces) == 0 {
		o.BuiltinInterfaces = append(phpstd.SPL(),
			"Traversable", "Iterator", "IteratorAggregate", "ArrayAccess", "Countable", "Serializable")
	}
	if len(o.UntypedContainers) == 0 {
		o.UntypedContainers = DefaultUntypedContainers
	}
	if o.DependencyRoot == "" {
		o.DependencyRoot = DefaultDependencyRoot
	}
	return o
}

// Deps are the collaborators of an Inspector. Probe and Types are required.
type Deps struct {
	Probe      ports.TypeExistenceProbe
	Types      ports.TypeIntrospector
	Modules    ports.ModuleKnowledgeBase
	Components ports.ComponentFactory
	Imports    ports.ImportScanner
	Detectors  ports.ContentScanner
	Files      ports.FileReader
}

// Inspector holds one target type at a time. Introspection handles are cached
// by name for the lifetime of the Inspector and never evicted, so one
// Inspector should serve one analysis run. Not safe for concurrent use.
type Inspector struct {
	oracle     *Oracle
	types      ports.TypeIntrospector
	modules    ports.ModuleKnowledgeBase
	components ports.ComponentFactory
	imports    ports.ImportScanner
	detectors  ports.ContentScanner
	files      ports.FileReader

	opts           Options
	builtins       map[string]bool
	untyped        map[string]bool
	packagePattern *regexp.Regexp

	target  string
	handles map[string]*index.TypeInfo
}

func New(deps Deps, opts Options) (*Inspector, error) {
	if deps.Probe == nil || deps.Types == nil {
		return nil, errors.New(errors.CodeValidationError, "inspector needs an existence probe and an introspector")
	}
	opts = opts.withDefaults()

	i := &Inspector{
		oracle:     NewOracle(deps.Probe, opts.FactorySuffix),
		types:      deps.Types,
		modules:    deps.Modules,
		components: deps.Components,
		imports:    deps.Imports,
		detectors:  deps.Detectors,
		files:      deps.Files,
		opts:       opts,
		builtins:   lowerSet(opts.BuiltinInterfaces),
		untyped:    lowerSet(opts.UntypedContainers),
		packagePattern: regexp.MustCompile(
			`(?:^|/)` + regexp.QuoteMeta(opts.DependencyRoot) + `/([^/]+)/([^/]+)/`),
		handles: make(map[string]*index.TypeInfo),
	}
	return i, nil
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(parser.TrimName(n))] = true
	}
	return set
}

// Oracle returns the existence oracle used for validation and filtering.
func (i *Inspector) Oracle() *Oracle {
	return i.oracle
}

// SetTarget validates name and makes it the current target. On failure the
// inspector is left without a target.
func (i *Inspector) SetTarget(name string) error {
	i.target = ""
	name = parser.TrimName(name)
	if !i.oracle.Exists(name) {
		return errors.AddContext(
			errors.New(errors.CodeTypeNotFound, "type does not exist"),
			errors.CtxType, name)
	}
	i.target = name
	return nil
}

func (i *Inspector) Target() string {
	return i.target
}

// Dependencies returns the merged dependency list of the target. It is empty
// when the target is not instantiable.
func (i *Inspector) Dependencies() ([]string, error) {
	if err := i.requireTarget(); err != nil {
		return nil, err
	}
	deps := []string{}
	if !i.isInstantiable(i.target) {
		return deps, nil
	}
	h, err := i.handle(i.target)
	if err != nil {
		return nil, err
	}

	deps = i.appendSignal(deps, "constructor", i.constructorDependencies(h))
	deps = i.appendSignal(deps, "interface", i.interfaceDependencies(h))

	if h.File == "" {
		return deps, nil
	}

	imported, err := i.importDependencies(h.File)
	if err != nil {
		return nil, err
	}
	deps = i.appendSignal(deps, "import", imported)

	found, err := i.contentDependencies(h.File)
	if err != nil {
		return nil, err
	}
	deps = i.appendSignal(deps, "content", found)

	return deps, nil
}

func (i *Inspector) appendSignal(deps []string, signal string, found []string) []string {
	if len(found) > 0 {
		observability.DependenciesFound.WithLabelValues(signal).Add(float64(len(found)))
	}
	return append(deps, found...)
}

// constructorDependencies reports declared parameter types that cannot be
// resolved: hints the code needs but nothing currently satisfies.
func (i *Inspector) constructorDependencies(h *index.TypeInfo) []string {
	var out []string
	for _, p := range h.ConstructorParams {
		typ := parser.TrimName(p.Type)
		if typ == "" {
			continue
		}
		lower := strings.ToLower(typ)
		if i.oracle.Exists(typ) || i.builtins[lower] || i.untyped[lower] || parser.IsBuiltinTypeName(typ) {
			continue
		}
		out = append(out, typ)
	}
	return out
}

func (i *Inspector) interfaceDependencies(h *index.TypeInfo) []string {
	var out []string
	for _, iface := range h.Interfaces {
		if !i.oracle.Exists(iface) {
			continue
		}
		if strings.EqualFold(parser.TrimName(iface), i.opts.ArrayAccessInterface) {
			continue
		}
		out = append(out, iface)
	}
	return out
}

func (i *Inspector) importDependencies(file string) ([]string, error) {
	if i.imports == nil {
		return nil, nil
	}
	seq, err := i.imports.ScanFile(file)
	if err != nil {
		return nil, readError(err, file)
	}
	var out []string
	for name := range seq {
		out = append(out, name)
	}
	return out, nil
}

func (i *Inspector) contentDependencies(file string) ([]string, error) {
	if i.detectors == nil || i.files == nil {
		return nil, nil
	}
	content, err := i.files.ReadFile(file)
	if err != nil {
		return nil, readError(err, file)
	}
	return i.detectors.Scan(string(content)), nil
}

func readError(err error, file string) error {
	return errors.AddContext(
		errors.Wrap(err, errors.CodeInternal, "read defining file"),
		errors.CtxPath, file)
}

// IsDeprecated reports whether the target's doc comment carries the
// deprecation marker. Introspection failures yield false.
func (i *Inspector) IsDeprecated() bool {
	h, err := i.handle(i.target)
	if err != nil {
		return false
	}
	return strings.Contains(h.DocComment, i.opts.DeprecationMarker)
}

// Filename returns the target's defining file, or "" when introspection fails.
func (i *Inspector) Filename() string {
	h, err := i.handle(i.target)
	if err != nil {
		return ""
	}
	return h.File
}

// ComponentByClass attributes the target to a module by its first two
// namespace segments, else to a library by its path under the dependency root.
func (i *Inspector) ComponentByClass() (component.Component, error) {
	if err := i.requireTarget(); err != nil {
		return component.Component{}, err
	}
	if i.components == nil {
		return component.Component{}, errors.New(errors.CodeValidationError, "inspector has no component factory")
	}

	parts := strings.Split(i.target, parser.NamespaceSeparator)
	if len(parts) >= 2 && i.modules != nil {
		moduleName := parts[0] + "_" + parts[1]
		if i.modules.IsKnownModule(moduleName) {
			return i.components.FromModuleName(moduleName), nil
		}
	}

	pkg, err := i.PackageByClass()
	if err != nil {
		return component.Component{}, err
	}
	if pkg != "" {
		vendor, name, _ := strings.Cut(pkg, "/")
		return i.components.FromLibrary(vendor, name), nil
	}

	return component.Component{}, errors.AddContext(
		errors.New(errors.CodeComponentNotFound, "no component found"),
		errors.CtxType, i.target)
}

// PackageByClass returns "vendor/package" when the target's defining file
// lies under <dependency root>/vendor/package/, or "" otherwise.
func (i *Inspector) PackageByClass() (string, error) {
	if err := i.requireTarget(); err != nil {
		return "", err
	}
	h, err := i.handle(i.target)
	if err != nil {
		return "", err
	}
	if h.File == "" {
		return "", nil
	}
	m := i.packagePattern.FindStringSubmatch(filepath.ToSlash(h.File))
	if m == nil {
		return "", nil
	}
	return m[1] + "/" + m[2], nil
}

// CachedHandles returns the number of cached introspection handles.
func (i *Inspector) CachedHandles() int {
	return len(i.handles)
}

func (i *Inspector) requireTarget() error {
	if i.target == "" {
		return errors.New(errors.CodeValidationError, "no target type set")
	}
	return nil
}

// isInstantiable follows substitutions: a type with a preference is
// instantiable when the preferred type is an interface, or a concrete class.
// Without a preference the type must exist as a class or interface.
func (i *Inspector) isInstantiable(name string) bool {
	if name == "" || i.types.IsTrait(name) {
		return false
	}
	pref := i.types.ResolveSubstitution(name)
	if pref == "" {
		return i.oracle.exists(name)
	}
	if i.types.IsInterface(pref) {
		return true
	}
	if !i.types.IsInstantiable(pref) {
		return false
	}
	return !i.types.IsAbstract(pref)
}

func (i *Inspector) handle(name string) (*index.TypeInfo, error) {
	if name == "" {
		return nil, errors.New(errors.CodeValidationError, "no target type set")
	}
	if h, ok := i.handles[name]; ok {
		observability.IntrospectionCache.WithLabelValues("hit").Inc()
		return h, nil
	}
	observability.IntrospectionCache.WithLabelValues("miss").Inc()

	if !i.isInstantiable(name) {
		return nil, errors.AddContext(
			errors.New(errors.CodeIntrospection, "type is not instantiable"),
			errors.CtxType, name)
	}
	h, err := i.types.Introspect(name)
	if err != nil {
		if errors.CodeOf(err) == "" {
			err = errors.Wrap(err, errors.CodeIntrospection, "introspection failed")
		}
		return nil, errors.AddContext(err, errors.CtxType, name)
	}
	i.handles[name] = h
	return h, nil
}
