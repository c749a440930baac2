package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/nix"                //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/pipeline"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			pipeline.NodeID,
			cas.NodeID,
			nix.RuntimeNodeID,
			shell.NodeID,
			fs.ScannerNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
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

			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:       app,
				Logger:    log,
				Telemetry: telemetry,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	pipe, err := graft.Dep[*pipeline.Pipeline](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.DerivationStore](ctx)
	if err != nil {
		return nil, err
	}

	rt, err := graft.Dep[ports.BuildRuntime](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[ports.ProcessRunner](ctx)
	if err != nil {
		return nil, err
	}

	scanner, err := graft.Dep[ports.SourceScanner](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, pipe, store, rt, runner, scanner, w, log), nil
}
