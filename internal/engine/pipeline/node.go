package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/cas"                //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/lockfile"           //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/nix"                //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ScannerNodeID,
			lockfile.NodeID,
			nix.CatalogNodeID,
			cas.NodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Pipeline, error) {
			scanner, err := graft.Dep[ports.SourceScanner](ctx)
			if err != nil {
				return nil, err
			}

			locks, err := graft.Dep[ports.LockReader](ctx)
			if err != nil {
				return nil, err
			}

			catalog, err := graft.Dep[ports.ToolCatalog](ctx)
			if err != nil {
				return nil, err
			}

			derivations, err := graft.Dep[ports.DerivationStore](ctx)
			if err != nil {
				return nil, err
			}

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return New(scanner, locks, catalog, derivations, telemetry), nil
		},
	})
}
