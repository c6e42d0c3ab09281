package ports

import (
	"context"

	"go.trai.ch/tola/internal/core/domain"
)

// Builder rebuilds whatever a set of changed paths invalidates.
//
//go:generate mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Submit blocks until every affected target has settled. Per-target
	// failures are part of the report; the error is reserved for failures of
	// the submission itself.
	Submit(ctx context.Context, dirty []string) (domain.BuildReport, error)
}
