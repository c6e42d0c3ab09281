// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/tola/internal/adapters/cache"
	_ "go.trai.ch/tola/internal/adapters/config"
	_ "go.trai.ch/tola/internal/adapters/fs"
	_ "go.trai.ch/tola/internal/adapters/logger"
	_ "go.trai.ch/tola/internal/adapters/metrics"
	_ "go.trai.ch/tola/internal/adapters/telemetry"
	// Register app nodes.
	_ "go.trai.ch/tola/internal/app"
)
