// Package parser reads PHP source into declaration summaries using the
// tree-sitter PHP grammar.
package parser

import (
	"extcheck/internal/core/errors"
	"extcheck/internal/shared/observability"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Extensions lists the file extensions treated as PHP source.
var Extensions = []string{".php", ".phtml", ".inc"}

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*File, error)
}

type Parser struct {
	pool      *ParserPool
	extractor Extractor
}

// NewParser returns a parser for PHP files mixed with inline HTML.
func NewParser() *Parser {
	lang := sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	return &Parser{
		pool:      NewParserPool(lang),
		extractor: &PHPExtractor{},
	}
}

// ParseFile parses content as the PHP file at path. Safe for concurrent use.
func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues("php").Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	res, err := p.extractor.Extract(tree.RootNode(), content, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "extraction failed")
	}
	return res, nil
}

// IsSupportedPath reports whether path has a PHP extension.
func (p *Parser) IsSupportedPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
