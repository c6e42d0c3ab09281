package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputWriter = (*Writer)(nil)

// Writer places artifacts at their routed location in the output tree.
// Files are written to a temporary sibling and renamed into place, so a
// concurrent reader sees either the old or the new artifact.
type Writer struct {
	layout domain.Layout
}

// NewWriter creates a Writer for the given site layout.
func NewWriter(layout domain.Layout) *Writer {
	return &Writer{layout: layout}
}

// Write stores artifact at the output path of source.
func (w *Writer) Write(ctx context.Context, source string, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dest, ok := w.layout.Route(source)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrNoRoute, "cannot write artifact"), "path", source)
	}

	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to create output directory"))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to create temporary output file"))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(artifact); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to write output file"))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to write output file"))
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to set output file mode"))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to move output file into place"))
	}
	return nil
}

// Remove deletes the output of source. A page directory left empty is removed too.
func (w *Writer) Remove(_ context.Context, source string) error {
	dest, ok := w.layout.Route(source)
	if !ok {
		return nil
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return domain.NewIOError(dest, zerr.Wrap(err, "failed to remove output file"))
	}
	if filepath.Base(dest) == domain.PageFileName {
		dir := filepath.Dir(dest)
		if dir != w.layout.Output {
			// Fails harmlessly when the directory still has children.
			_ = os.Remove(dir)
		}
	}
	return nil
}
