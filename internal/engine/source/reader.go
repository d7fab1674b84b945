// Package source provides whole-file reads of source files for the scanners,
// memoised in a bounded LRU owned by one analysis run.
package source

import (
	"extcheck/internal/shared/observability"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultEntries = 512

type Reader struct {
	cache *lru.Cache[string, []byte]
}

// NewReader returns a reader caching up to entries files. entries <= 0 uses DefaultEntries.
func NewReader(entries int) (*Reader, error) {
	if entries <= 0 {
		entries = DefaultEntries
	}
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("create source cache: %w", err)
	}
	return &Reader{cache: cache}, nil
}

// ReadFile returns the full content of path. The returned slice is a copy.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	if content, ok := r.cache.Get(path); ok {
		observability.SourceCache.WithLabelValues("hit").Inc()
		return clone(content), nil
	}
	observability.SourceCache.WithLabelValues("miss").Inc()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.cache.Add(path, clone(content))
	return content, nil
}

// Forget drops path from the cache.
func (r *Reader) Forget(path string) {
	r.cache.Remove(path)
}

func (r *Reader) Len() int {
	return r.cache.Len()
}

func clone(content []byte) []byte {
	out := make([]byte, len(content))
	copy(out, content)
	return out
}
