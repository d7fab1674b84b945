// Package detectors scans raw PHP source text for class names that are
// referenced without an import: string literals, ::class constants, object
// manager lookups and generated factories.
package detectors

import (
	"extcheck/internal/core/errors"
	"fmt"
	"regexp"
	"strings"
)

// Detector finds candidate type names in the full text of one file.
// Implementations must be stateless.
type Detector interface {
	Name() string
	Scan(text string) []string
}

// Set is an ordered registry of detectors. Order fixes the output order only.
type Set struct {
	detectors []Detector
	names     map[string]bool
}

func NewSet(detectors ...Detector) (*Set, error) {
	s := &Set{names: make(map[string]bool)}
	for _, d := range detectors {
		if err := s.Register(d); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) Register(d Detector) error {
	if d == nil {
		return errors.New(errors.CodeValidationError, "nil detector")
	}
	if s.names[d.Name()] {
		return errors.Newf(errors.CodeValidationError, "detector %q already registered", d.Name())
	}
	s.names[d.Name()] = true
	s.detectors = append(s.detectors, d)
	return nil
}

func (s *Set) Detectors() []Detector {
	out := make([]Detector, len(s.detectors))
	copy(out, s.detectors)
	return out
}

func (s *Set) Names() []string {
	out := make([]string, 0, len(s.detectors))
	for _, d := range s.detectors {
		out = append(out, d.Name())
	}
	return out
}

// Scan runs every detector over text and concatenates their results.
func (s *Set) Scan(text string) []string {
	var out []string
	for _, d := range s.detectors {
		out = append(out, d.Scan(text)...)
	}
	return out
}

type PatternConfig struct {
	Name  string
	Regex string
}

// Build returns the built-in detectors minus disabled, followed by one regex
// detector per pattern.
func Build(disabled []string, patterns []PatternConfig) (*Set, error) {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[strings.TrimSpace(name)] = true
	}

	var selected []Detector
	for _, d := range Default() {
		if !skip[d.Name()] {
			selected = append(selected, d)
		}
	}
	for _, p := range patterns {
		d, err := NewRegexDetector(p.Name, p.Regex)
		if err != nil {
			return nil, err
		}
		selected = append(selected, d)
	}
	return NewSet(selected...)
}

// Default returns the built-in detectors in scan order.
func Default() []Detector {
	return []Detector{
		stringLiteral,
		classConstant,
		objectManager,
		factory,
	}
}

const qualifiedName = `[A-Za-z_][A-Za-z0-9_]*(?:\\{1,2}[A-Za-z_][A-Za-z0-9_]*)+`

var (
	stringLiteral = mustRegex("string_literal",
		`['"]\\{0,2}([A-Z][A-Za-z0-9_]*(?:\\{1,2}[A-Za-z_][A-Za-z0-9_]*)+)['"]`)
	classConstant = mustRegex("class_constant",
		`\\?(`+qualifiedName+`)::class\b`)
	objectManager = mustRegex("object_manager",
		`(?i:objectmanager)[A-Za-z_]*(?:::getInstance\(\))?\s*->\s*(?:get|create)\(\s*(?:['"]\\{0,2}(`+qualifiedName+`)['"]|\\?(`+qualifiedName+`)::class)`)
	factory = mustRegex("factory",
		`\\?(`+qualifiedName+`Factory)\b`)
)

// RegexDetector reports the named group "class" of every match, or the first
// non-empty submatch when the expression has no such group.
type RegexDetector struct {
	name string
	re   *regexp.Regexp
	idx  int
}

func NewRegexDetector(name, expr string) (*RegexDetector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeValidationError, "detector name is required")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid pattern for detector %q", name))
	}
	if re.NumSubexp() == 0 {
		return nil, errors.Newf(errors.CodeValidationError, "pattern for detector %q has no capture group", name)
	}
	return &RegexDetector{name: name, re: re, idx: re.SubexpIndex("class")}, nil
}

func mustRegex(name, expr string) *RegexDetector {
	d, err := NewRegexDetector(name, expr)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *RegexDetector) Name() string { return d.name }

func (d *RegexDetector) Scan(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range d.re.FindAllStringSubmatch(text, -1) {
		name := normalize(d.pick(match))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (d *RegexDetector) pick(match []string) string {
	if d.idx > 0 {
		return match[d.idx]
	}
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// normalize collapses escaped separators from double-quoted strings and drops
// the leading separator.
func normalize(name string) string {
	name = strings.ReplaceAll(name, `\\`, `\`)
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}
