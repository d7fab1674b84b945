package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

func phpLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_php.LanguagePHP())
}

const poolSource = "<?php\nnamespace Acme;\nclass Cart {}\n"

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(phpLanguage())

	sp := pool.Get()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Leased())

	pool.Put(sp)
	assert.Equal(t, 0, pool.Leased())

	pool.Put(nil)
	assert.Equal(t, 0, pool.Leased())
}

func TestParserPool_ParsesPHP(t *testing.T) {
	pool := NewParserPool(phpLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte(poolSource), nil)
	require.NotNil(t, tree)
	defer tree.Close()

	root := tree.RootNode()
	require.NotNil(t, root)
	assert.False(t, root.HasError())
	assert.Equal(t, "program", root.Kind())
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(phpLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte(poolSource), nil)
	require.NotNil(t, tree)
	tree.Close()
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(phpLanguage())

	const goroutines = 16
	const iters = 25

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse([]byte(poolSource), nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, pool.Leased())
}
