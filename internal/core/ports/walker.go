package ports

import "iter"

// Walker enumerates the files of a directory tree.
//
//go:generate mockgen -source=walker.go -destination=mocks/mock_walker.go -package=mocks
type Walker interface {
	// WalkFiles yields every file below root, skipping ignored directories.
	WalkFiles(root string, ignores []string) iter.Seq[string]
}
