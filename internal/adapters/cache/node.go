package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tola/internal/adapters/fs"      //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/tola/internal/adapters/metrics" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/tola/internal/core/ports"
)

const (
	// ContentNodeID is the unique identifier for the content cache Graft node.
	ContentNodeID graft.ID = "adapter.cache.content"
	// ResourceNodeID is the unique identifier for the resource cache Graft node.
	ResourceNodeID graft.ID = "adapter.cache.resource"
)

func init() {
	graft.Register(graft.Node[ports.ContentCache]{
		ID:        ContentNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.ContentCache, error) {
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			recorder, err := graft.Dep[ports.MetricsRecorder](ctx)
			if err != nil {
				return nil, err
			}
			return NewContentCache(hasher, recorder), nil
		},
	})

	graft.Register(graft.Node[ports.ResourceCache]{
		ID:        ResourceNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ResourceCache, error) {
			return NewResourceCache(), nil
		},
	})
}
