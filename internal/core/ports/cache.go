package ports

import (
	"context"

	"go.trai.ch/tola/internal/core/domain"
)

//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks

// CacheEntry is one fingerprinted version of a file.
type CacheEntry struct {
	Payload     []byte
	Fingerprint domain.Fingerprint
}

// ContentCache memoizes file contents keyed by path and validated by fingerprint.
type ContentCache interface {
	// GetOrLoad returns the entry for path, re-reading the file when its
	// fingerprint no longer matches. Read failures are ErrIO build errors.
	GetOrLoad(path string) (CacheEntry, error)
	// Invalidate drops the entry for path.
	Invalidate(path string)
}

// ResourceLoader produces a shared resource.
type ResourceLoader func(ctx context.Context) (any, error)

// ResourceCache holds process-wide resources that are loaded at most once.
type ResourceCache interface {
	// GetOrInit returns the resource for key, running load if no value is
	// cached. Concurrent callers share one load; a failed load is returned to
	// all of them as ErrResourceLoad and leaves key unresolved.
	GetOrInit(ctx context.Context, key string, load ResourceLoader) (any, error)
}
