// Package telemetry holds telemetry implementations that need no backend.
package telemetry

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Noop discards every vertex.
type Noop struct{}

// NewNoop creates a Noop telemetry.
func NewNoop() *Noop {
	return &Noop{}
}

// Record returns a vertex that discards everything.
func (Noop) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

// Close does nothing.
func (Noop) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Log(domain.LogLevel, string) {}
func (noopVertex) Complete(error) {}
func (noopVertex) Cached() {}
