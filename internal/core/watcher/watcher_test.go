package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrInvalid))
	assert.Nil(t, w)
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	_, err := NewWatcher(100*time.Millisecond, []string{"[unclosed"}, nil, func([]string) {})
	require.Error(t, err)
}

func waitFor(t *testing.T, changes <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changes:
			if slices.Contains(paths, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcher_ReportsPHPChanges(t *testing.T) {
	tmpDir := t.TempDir()

	changes := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, []string{"Test"}, []string{"*.bak.php"}, func(paths []string) {
		changes <- paths
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]string{tmpDir}))

	cart := filepath.Join(tmpDir, "Cart.php")
	require.NoError(t, os.WriteFile(cart, []byte("<?php\n"), 0o644))
	waitFor(t, changes, cart, 2*time.Second)

	excluded := filepath.Join(tmpDir, "Cart.bak.php")
	require.NoError(t, os.WriteFile(excluded, []byte("<?php\n"), 0o644))
	select {
	case paths := <-changes:
		assert.NotContains(t, paths, excluded)
	case <-time.After(300 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "Model")
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	nested := filepath.Join(subdir, "Item.php")
	require.NoError(t, os.WriteFile(nested, []byte("<?php\n"), 0o644))
	waitFor(t, changes, nested, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changes := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, func(paths []string) {
		changes <- paths
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]string{tmpDir}))

	oldPath := filepath.Join(tmpDir, "Old.php")
	newPath := filepath.Join(tmpDir, "New.php")
	require.NoError(t, os.WriteFile(oldPath, []byte("<?php\n"), 0o644))
	require.NoError(t, os.Rename(oldPath, newPath))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changes:
			if slices.Contains(paths, oldPath) || slices.Contains(paths, newPath) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_Filters(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"vendor"}, nil, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.False(t, w.shouldExcludeFile("app/code/Acme/Shop/Model/Cart.php"))
	assert.False(t, w.shouldExcludeFile("app/code/Acme/Shop/etc/di.xml"))
	assert.False(t, w.shouldExcludeFile("app/code/Acme/Shop/composer.json"))
	assert.True(t, w.shouldExcludeFile("README.md"))
	assert.True(t, w.shouldExcludeDir("/project/vendor"))

	w.SetFilters([]string{".php"}, nil)
	assert.True(t, w.shouldExcludeFile("composer.json"))
}
