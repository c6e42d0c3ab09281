// Package fs provides file system adapters for walking, hashing and writing site files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
)

var _ ports.Walker = (*Walker)(nil)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root in lexical order. Names
// excluded from every site (.git, .jj, node_modules, .DS_Store) and names
// matching one of ignores are skipped; ignores may also hold absolute
// directory paths. Unreadable entries are skipped rather than ending the walk.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if path != root && w.skip(path, d.Name(), ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) skip(path, name string, ignores []string) bool {
	if domain.Skipped(name) {
		return true
	}
	for _, ignore := range ignores {
		if filepath.IsAbs(ignore) {
			if filepath.Clean(ignore) == path {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
