package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds kiln.yaml at or above cwd and returns the project it describes.
	Load(cwd string) (*domain.Project, error)

	// Root returns the directory holding the kiln.yaml that governs cwd without parsing it.
	Root(cwd string) (string, error)
}
