package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the derivation store Graft node.
const NodeID graft.ID = "adapter.derivation_store"

func init() {
	graft.Register(graft.Node[ports.DerivationStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.DerivationStore, error) {
			return NewStore(), nil
		},
	})
}
