package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/tola/internal/adapters/cache"     //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/tola/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.WalkerNodeID,
			cache.ContentNodeID,
			cache.ResourceNodeID,
			telemetry.TracerNodeID,
			metrics.RecorderNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[ports.Walker](ctx)
	if err != nil {
		return nil, err
	}
	sources, err := graft.Dep[ports.ContentCache](ctx)
	if err != nil {
		return nil, err
	}
	resources, err := graft.Dep[ports.ResourceCache](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	recorder, err := graft.Dep[*metrics.Recorder](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, log, walker, sources, resources, tracer, recorder), nil
}
