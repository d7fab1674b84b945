package parser

import (
	"strings"
)

// NamespaceSeparator separates PHP namespace segments.
const NamespaceSeparator = `\`

var builtinTypeNames = map[string]bool{
	"array": true, "callable": true, "iterable": true, "bool": true, "boolean": true,
	"float": true, "double": true, "int": true, "integer": true, "string": true,
	"void": true, "mixed": true, "object": true, "false": true, "true": true,
	"null": true, "never": true, "resource": true,
}

// IsBuiltinTypeName reports whether name is a PHP built-in (non-class) type.
func IsBuiltinTypeName(name string) bool {
	return builtinTypeNames[strings.ToLower(strings.TrimPrefix(name, "?"))]
}

// NameScope resolves names written in source to fully qualified names using
// the active namespace and its class imports.
type NameScope struct {
	Namespace string
	Class     string
	Parent    string
	aliases   map[string]string
}

func NewNameScope() *NameScope {
	return &NameScope{aliases: make(map[string]string)}
}

// EnterNamespace switches to ns and drops the previous namespace's imports.
func (s *NameScope) EnterNamespace(ns string) {
	s.Namespace = TrimName(ns)
	s.aliases = make(map[string]string)
	s.Class = ""
	s.Parent = ""
}

func (s *NameScope) AddImport(imp Import) {
	if imp.Kind != ImportClass || imp.Name == "" {
		return
	}
	alias := imp.Alias
	if alias == "" {
		alias = LastSegment(imp.Name)
	}
	s.aliases[strings.ToLower(alias)] = imp.Name
}

// Resolve applies PHP class name resolution. Built-in pseudo types are
// returned lowercased and unqualified.
func (s *NameScope) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, NamespaceSeparator) {
		return TrimName(name)
	}
	lower := strings.ToLower(name)
	switch lower {
	case "self", "static":
		if s.Class != "" {
			return s.Class
		}
		return lower
	case "parent":
		if s.Parent != "" {
			return s.Parent
		}
		return lower
	}
	if builtinTypeNames[lower] {
		return lower
	}
	if strings.HasPrefix(lower, "namespace"+NamespaceSeparator) {
		return s.qualify(name[len("namespace"+NamespaceSeparator):])
	}

	first, rest, qualified := strings.Cut(name, NamespaceSeparator)
	if target, ok := s.aliases[strings.ToLower(first)]; ok {
		if qualified {
			return target + NamespaceSeparator + rest
		}
		return target
	}
	return s.qualify(name)
}

func (s *NameScope) qualify(name string) string {
	if s.Namespace == "" {
		return name
	}
	return s.Namespace + NamespaceSeparator + name
}

// TrimName strips surrounding whitespace and the leading namespace separator.
func TrimName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), NamespaceSeparator)
}

// LastSegment returns the unqualified part of a namespaced name.
func LastSegment(name string) string {
	if i := strings.LastIndex(name, NamespaceSeparator); i >= 0 {
		return name[i+1:]
	}
	return name
}
