package ports

import (
	"context"

	"go.trai.ch/tola/internal/core/domain"
)

// OutputWriter places target artifacts into the output tree.
//
//go:generate mockgen -source=writer.go -destination=mocks/mock_writer.go -package=mocks
type OutputWriter interface {
	// Write stores the artifact of source at its routed output path.
	Write(ctx context.Context, source string, artifact domain.Artifact) error
	// Remove deletes the routed output of a source that no longer exists.
	Remove(ctx context.Context, source string) error
}
