package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records units of work.
type Telemetry interface {
	// Record starts a vertex named name.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes the recording.
	Close() error
}

// Vertex is a unit of work in progress.
type Vertex interface {
	// Stdout returns a writer for the vertex's output stream.
	Stdout() io.Writer
	// Log records a message at level.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex finished. A nil err means success.
	Complete(err error)
	// Cached marks the vertex as satisfied from the store.
	Cached()
}
