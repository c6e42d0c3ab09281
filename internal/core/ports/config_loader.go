package ports

import "go.trai.ch/tola/internal/core/domain"

// ConfigLoader defines the interface for loading the site configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the configuration file at or above cwd and resolves it
	// over the defaults.
	Load(cwd string) (*domain.SiteConfig, error)
}
