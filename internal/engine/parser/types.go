package parser

import (
	"time"
)

// File is the syntactic summary of one PHP source file. All type names are
// fully qualified without the leading backslash.
type File struct {
	Path       string
	Namespaces []string
	Imports    []Import
	Types      []TypeDecl
	ParsedAt   time.Time
}

type ImportKind int

const (
	ImportClass ImportKind = iota
	ImportFunction
	ImportConst
)

type Import struct {
	Name     string // Fully qualified imported name
	Alias    string // Local alias, defaults to the last name segment
	Kind     ImportKind
	Location Location
}

type TypeKind int

const (
	KindClass TypeKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k TypeKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

type TypeDecl struct {
	Name       string
	FullName   string
	Kind       TypeKind
	Abstract   bool
	Final      bool
	Extends    []string // Parent class, or parent interfaces for interfaces
	Implements []string
	Traits     []string
	// Constructor is nil when the type declares no __construct.
	Constructor *Constructor
	DocComment  string
	Location    Location
}

type Constructor struct {
	Params []Param
	Public bool
}

type Param struct {
	Name string
	// Type is the normalized declared type: a fully qualified class name, or a
	// lowercase built-in such as "array". Empty when untyped or a union.
	Type     string
	Union    []string
	Nullable bool
	Variadic bool
	Promoted bool
}

type Location struct {
	File   string
	Line   int
	Column int
}
