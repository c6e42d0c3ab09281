package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tola/internal/core/ports"
)

const (
	// RecorderNodeID is the unique identifier for the concrete recorder Graft node.
	RecorderNodeID graft.ID = "adapter.metrics.recorder"
	// NodeID is the unique identifier for the ports.MetricsRecorder Graft node.
	NodeID graft.ID = "adapter.metrics"
)

func init() {
	graft.Register(graft.Node[*Recorder]{
		ID:        RecorderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Recorder, error) {
			return NewRecorder(nil), nil
		},
	})

	graft.Register(graft.Node[ports.MetricsRecorder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{RecorderNodeID},
		Run: func(ctx context.Context) (ports.MetricsRecorder, error) {
			r, err := graft.Dep[*Recorder](ctx)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	})
}
