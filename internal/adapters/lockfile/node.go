package lockfile

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the lock reader Graft node.
const NodeID graft.ID = "adapter.lock_reader"

func init() {
	graft.Register(graft.Node[ports.LockReader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockReader, error) {
			return NewReader(), nil
		},
	})
}
