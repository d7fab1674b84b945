// Package imports extracts the class names a PHP file imports through
// namespace use declarations.
package imports

import (
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/source"
	"iter"
	"log/slog"
)

type Scanner struct {
	parser *parser.Parser
	reader *source.Reader
}

func NewScanner(p *parser.Parser, r *source.Reader) *Scanner {
	return &Scanner{parser: p, reader: r}
}

// Scan returns the fully qualified class names imported by src, in source
// order. Parsing happens on each iteration, so the sequence can be ranged over
// more than once. Function and constant imports are not types and are skipped.
func (s *Scanner) Scan(src []byte) iter.Seq[string] {
	return s.scan("", src)
}

// ScanFile reads path and scans it. An empty path yields an empty sequence.
func (s *Scanner) ScanFile(path string) (iter.Seq[string], error) {
	if path == "" {
		return func(func(string) bool) {}, nil
	}
	content, err := s.reader.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.scan(path, content), nil
}

func (s *Scanner) scan(path string, src []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		file, err := s.parser.ParseFile(path, src)
		if err != nil {
			slog.Debug("import scan failed", "path", path, "error", err)
			return
		}
		for _, imp := range file.Imports {
			if imp.Kind != parser.ImportClass {
				continue
			}
			if !yield(imp.Name) {
				return
			}
		}
	}
}
