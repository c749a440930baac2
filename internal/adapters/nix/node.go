package nix

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/config" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// CatalogNodeID is the unique identifier for the tool catalog Graft node.
	CatalogNodeID graft.ID = "adapter.tool_catalog"
	// RuntimeNodeID is the unique identifier for the build runtime Graft node.
	RuntimeNodeID graft.ID = "adapter.build_runtime"
)

func init() {
	graft.Register(graft.Node[ports.ToolCatalog]{
		ID:        CatalogNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolCatalog, error) {
			return NewCatalog(filepath.Join(stateRoot(), domain.DefaultNixHubCachePath())), nil
		},
	})

	graft.Register(graft.Node[ports.BuildRuntime]{
		ID:        RuntimeNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.BuildRuntime, error) {
			return NewRuntime(filepath.Join(stateRoot(), domain.DefaultEnvCachePath())), nil
		},
	})
}

// stateRoot returns the project directory, or the working directory outside a project.
func stateRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if dir, err := config.FindRoot(cwd); err == nil {
		return dir
	}
	return cwd
}
