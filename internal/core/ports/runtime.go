package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// BuildRuntime is the external system that executes derivations and provisions tools.
// Both operations are idempotent for identical inputs.
//
//go:generate go run go.uber.org/mock/mockgen -source=runtime.go -destination=mocks/mock_runtime.go -package=mocks
type BuildRuntime interface {
	// Realize builds the derivation and returns where its outputs were materialized.
	Realize(ctx context.Context, drv *domain.Derivation) (domain.Realization, error)

	// Environment returns the variables ("KEY=VALUE") that put the shell's tools on PATH.
	Environment(ctx context.Context, shell *domain.DevShell) ([]string, error)
}

// ProcessRunner starts processes for the run and shell commands.
type ProcessRunner interface {
	// Run executes argv with the caller's standard streams and waits for it.
	Run(ctx context.Context, argv, env []string) error

	// Interactive starts argv attached to the terminal and waits for it.
	Interactive(ctx context.Context, argv, env []string) error
}
