package source

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
)

// Walker lists files under a set of roots, skipping directories and files whose
// base name matches an exclude glob.
type Walker struct {
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func NewWalker(excludeDirs, excludeFiles []string) (*Walker, error) {
	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	return &Walker{dirGlobs: dirGlobs, fileGlobs: fileGlobs}, nil
}

// Walk returns the sorted, de-duplicated files under roots accepted by match.
// Missing roots are skipped. A nil match accepts every file.
func (w *Walker) Walk(roots []string, match func(path string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, root := range roots {
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if path == root {
					return nil
				}
				for _, g := range w.dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if match != nil && !match(path) {
				return nil
			}
			for _, g := range w.fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			clean := filepath.Clean(path)
			if !seen[clean] {
				seen[clean] = true
				files = append(files, clean)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
