package index

import (
	"context"
	"extcheck/internal/engine/parser"
	"extcheck/internal/engine/source"
	"extcheck/internal/shared/observability"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

const DefaultWorkers = 4

type Options struct {
	// Root anchors DIPatterns; di.xml paths are matched relative to it.
	Root       string
	DIPatterns []string
	Workers    int
}

// Builder fills an Index from PHP sources and di.xml files found under a set
// of code roots.
type Builder struct {
	parser  *parser.Parser
	walker  *source.Walker
	root    string
	diGlobs []glob.Glob
	workers int
}

func NewBuilder(p *parser.Parser, w *source.Walker, opts Options) (*Builder, error) {
	b := &Builder{
		parser:  p,
		walker:  w,
		root:    opts.Root,
		workers: opts.Workers,
	}
	if b.workers <= 0 {
		b.workers = DefaultWorkers
	}
	for _, pattern := range opts.DIPatterns {
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid di pattern %q: %w", pattern, err)
		}
		b.diGlobs = append(b.diGlobs, g)
	}
	return b, nil
}

// Build walks roots and returns a finalized index. Files that fail to parse are
// logged and skipped.
func (b *Builder) Build(ctx context.Context, roots []string) (*Index, error) {
	ctx, span := observability.Tracer.Start(ctx, "index.Build")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("index_build").Observe(time.Since(start).Seconds())
	}()

	var phpFiles, diFiles []string
	files, err := b.walker.Walk(roots, func(path string) bool {
		return b.parser.IsSupportedPath(path) || b.isDIFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("walk code roots: %w", err)
	}
	for _, path := range files {
		if b.isDIFile(path) {
			diFiles = append(diFiles, path)
		} else {
			phpFiles = append(phpFiles, path)
		}
	}

	parsed, err := b.parseAll(ctx, phpFiles)
	if err != nil {
		return nil, err
	}

	ix := New()
	for _, f := range parsed {
		if f == nil {
			continue
		}
		for _, name := range ix.AddFile(f) {
			slog.Debug("duplicate type declaration ignored", "type", name, "path", f.Path)
		}
	}
	for _, path := range diFiles {
		if err := LoadPreferences(ix, path); err != nil {
			slog.Warn("failed to read di configuration", "path", path, "error", err)
		}
	}
	ix.Finalize()

	slog.Debug("type index built", "files", len(phpFiles), "di_files", len(diFiles), "types", ix.Len())
	return ix, nil
}

func (b *Builder) isDIFile(path string) bool {
	if len(b.diGlobs) == 0 || filepath.Ext(path) != ".xml" {
		return false
	}
	rel := path
	if b.root != "" {
		if r, err := filepath.Rel(b.root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, g := range b.diGlobs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// parseAll parses files on a bounded worker pool. Results keep the order of files.
func (b *Builder) parseAll(ctx context.Context, files []string) ([]*parser.File, error) {
	results := make([]*parser.File, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := files[idx]
				content, err := os.ReadFile(path)
				if err != nil {
					slog.Warn("failed to read file", "path", path, "error", err)
					continue
				}
				f, err := b.parser.ParseFile(path, content)
				if err != nil {
					slog.Warn("failed to parse file", "path", path, "error", err)
					continue
				}
				results[idx] = f
			}
		}()
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
