package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	WalkerNodeID  graft.ID = "adapter.fs.walker"
	ScannerNodeID graft.ID = "adapter.fs.scanner"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(DefaultIgnores...), nil
		},
	})

	graft.Register(graft.Node[ports.SourceScanner]{
		ID:        ScannerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.SourceScanner, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewScanner(walker), nil
		},
	})
}
