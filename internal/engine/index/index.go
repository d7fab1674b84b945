// Package index holds a static, in-memory view of the PHP types declared under
// the configured code roots together with the PHP built-in types. It answers
// the existence and introspection queries that would otherwise need a running
// PHP runtime.
package index

import (
	"extcheck/internal/core/errors"
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/phpstd"
	"extcheck/internal/shared/observability"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// TypeInfo is the introspection handle for one type. Interfaces is transitive,
// ConstructorParams includes an inherited constructor.
type TypeInfo struct {
	Name              string
	Kind              parser.TypeKind
	Abstract          bool
	Final             bool
	Builtin           bool
	Parent            string
	Interfaces        []string
	Traits            []string
	ConstructorParams []Param
	ConstructorPublic bool
	File              string
	DocComment        string
}

type Param struct {
	Name string
	Type string // empty when untyped or a union
}

type entry struct {
	info       TypeInfo
	extends    []string
	implements []string
	ctor       *parser.Constructor
}

type Index struct {
	mu          sync.RWMutex
	types       map[string]*entry
	preferences map[string]string
	finalized   bool
}

// New returns an index holding only the PHP built-in types.
func New() *Index {
	ix := &Index{
		types:       make(map[string]*entry),
		preferences: make(map[string]string),
	}
	for name, parents := range phpstd.InterfaceParents {
		ix.types[key(name)] = &entry{
			info:    TypeInfo{Name: name, Kind: parser.KindInterface, Builtin: true},
			extends: parents,
		}
	}
	for name, ifaces := range phpstd.ClassInterfaces {
		ix.types[key(name)] = &entry{
			info: TypeInfo{
				Name:              name,
				Kind:              parser.KindClass,
				Abstract:          phpstd.AbstractClasses[name],
				Builtin:           true,
				ConstructorPublic: true,
			},
			implements: ifaces,
		}
	}
	return ix
}

func key(name string) string {
	return strings.ToLower(parser.TrimName(name))
}

// AddFile records every type declared in f. A type already present keeps its
// first declaration; AddFile reports the names it skipped.
func (ix *Index) AddFile(f *parser.File) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.finalized = false

	var dupes []string
	for _, decl := range f.Types {
		k := key(decl.FullName)
		if k == "" {
			continue
		}
		if _, ok := ix.types[k]; ok {
			dupes = append(dupes, decl.FullName)
			continue
		}
		ix.types[k] = &entry{
			info: TypeInfo{
				Name:       decl.FullName,
				Kind:       decl.Kind,
				Abstract:   decl.Abstract,
				Final:      decl.Final,
				Traits:     decl.Traits,
				File:       f.Path,
				DocComment: decl.DocComment,
			},
			extends:    decl.Extends,
			implements: decl.Implements,
			ctor:       decl.Constructor,
		}
	}
	return dupes
}

// AddPreference registers typ as the concrete substitution for forType.
// Later registrations override earlier ones.
func (ix *Index) AddPreference(forType, typ string) {
	forType, typ = parser.TrimName(forType), parser.TrimName(typ)
	if forType == "" || typ == "" {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.preferences[key(forType)] = typ
}

// Finalize resolves parents, inherited constructors and transitive interfaces.
// It must run after the last AddFile and before queries; queries call it lazily.
func (ix *Index) Finalize() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.finalizeLocked()
}

func (ix *Index) finalizeLocked() {
	if ix.finalized {
		return
	}

	counts := make(map[parser.TypeKind]int)
	for _, e := range ix.types {
		if e.info.Kind == parser.KindClass && len(e.extends) > 0 {
			e.info.Parent = e.extends[0]
		}
		e.info.Interfaces = ix.interfacesOf(e, map[*entry]bool{})
		if e.info.Kind == parser.KindEnum {
			e.info.Interfaces = appendUnique(e.info.Interfaces, "UnitEnum")
		}
		ctor, public := ix.constructorOf(e, map[*entry]bool{})
		e.info.ConstructorParams = ctor
		e.info.ConstructorPublic = public
		counts[e.info.Kind]++
	}
	for _, kind := range []parser.TypeKind{parser.KindClass, parser.KindInterface, parser.KindTrait, parser.KindEnum} {
		observability.IndexedTypes.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
	ix.finalized = true
}

// interfacesOf collects the interface names of e the way PHP reflection does:
// directly implemented interfaces, their ancestors, then those of the parent.
func (ix *Index) interfacesOf(e *entry, visiting map[*entry]bool) []string {
	if visiting[e] {
		return nil
	}
	visiting[e] = true
	defer delete(visiting, e)

	var out []string
	var add func(name string)
	add = func(name string) {
		canonical := name
		parent := ix.types[key(name)]
		if parent != nil {
			canonical = parent.info.Name
		}
		if containsFold(out, canonical) {
			return
		}
		out = append(out, canonical)
		if parent != nil && parent.info.Kind == parser.KindInterface && !visiting[parent] {
			visiting[parent] = true
			for _, up := range parent.extends {
				add(up)
			}
			delete(visiting, parent)
		}
	}

	switch e.info.Kind {
	case parser.KindInterface:
		for _, name := range e.extends {
			add(name)
		}
	case parser.KindTrait:
		return nil
	default:
		for _, name := range e.implements {
			add(name)
		}
		if len(e.extends) > 0 {
			if parent := ix.types[key(e.extends[0])]; parent != nil {
				for _, name := range ix.interfacesOf(parent, visiting) {
					add(name)
				}
			}
		}
	}
	return out
}

func (ix *Index) constructorOf(e *entry, visiting map[*entry]bool) ([]Param, bool) {
	if e.ctor != nil {
		params := make([]Param, 0, len(e.ctor.Params))
		for _, p := range e.ctor.Params {
			params = append(params, Param{Name: p.Name, Type: p.Type})
		}
		return params, e.ctor.Public
	}
	if e.info.Kind != parser.KindClass || len(e.extends) == 0 || visiting[e] {
		return nil, true
	}
	visiting[e] = true
	parent := ix.types[key(e.extends[0])]
	if parent == nil {
		return nil, true
	}
	return ix.constructorOf(parent, visiting)
}

func (ix *Index) lookup(name string) *entry {
	ix.mu.RLock()
	if ix.finalized {
		defer ix.mu.RUnlock()
		return ix.types[key(name)]
	}
	ix.mu.RUnlock()

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.finalizeLocked()
	return ix.types[key(name)]
}

// Exists reports whether name is a known class, interface, trait or enum.
func (ix *Index) Exists(name string) bool {
	return ix.lookup(name) != nil
}

// Introspect returns a copy of the handle for name.
func (ix *Index) Introspect(name string) (*TypeInfo, error) {
	e := ix.lookup(name)
	if e == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeIntrospection, "type is not indexed"),
			errors.CtxType, name)
	}
	info := e.info
	info.Interfaces = append([]string(nil), e.info.Interfaces...)
	info.Traits = append([]string(nil), e.info.Traits...)
	info.ConstructorParams = append([]Param(nil), e.info.ConstructorParams...)
	return &info, nil
}

// ResolveSubstitution returns the preferred concrete type for name, or "".
func (ix *Index) ResolveSubstitution(name string) string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.preferences[key(name)]
}

// IsAbstract is true for abstract classes and interfaces.
func (ix *Index) IsAbstract(name string) bool {
	e := ix.lookup(name)
	return e != nil && (e.info.Abstract || e.info.Kind == parser.KindInterface)
}

func (ix *Index) IsInterface(name string) bool {
	e := ix.lookup(name)
	return e != nil && e.info.Kind == parser.KindInterface
}

func (ix *Index) IsTrait(name string) bool {
	e := ix.lookup(name)
	return e != nil && e.info.Kind == parser.KindTrait
}

// IsInstantiable is true for concrete classes whose constructor is public.
func (ix *Index) IsInstantiable(name string) bool {
	e := ix.lookup(name)
	return e != nil && e.info.Kind == parser.KindClass && !e.info.Abstract && e.info.ConstructorPublic
}

// Len returns the number of indexed types, built-ins included.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.types)
}

// TypesUnder returns the sorted names of the types declared in files below dir.
func (ix *Index) TypesUnder(dir string) []string {
	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var names []string
	for _, e := range ix.types {
		if e.info.File == "" {
			continue
		}
		file := filepath.Clean(e.info.File)
		if file == dir || strings.HasPrefix(file, prefix) {
			names = append(names, e.info.Name)
		}
	}
	sort.Strings(names)
	return names
}

func containsFold(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, name string) []string {
	if containsFold(list, name) {
		return list
	}
	return append(list, name)
}
