package progrock

import (
	"fmt"
	"io"

	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/domain"
)

// Vertex implements ports.Vertex on a progrock vertex recorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
}

// Stdout returns the vertex output stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Log writes msg to the vertex output stream, prefixed with its level.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "[%s] %s\n", level, msg)
}

// Complete marks the vertex done.
func (v *Vertex) Complete(err error) {
	v.vertex.Done(err)
}

// Cached marks the vertex as satisfied from the store.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}
