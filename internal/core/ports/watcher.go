package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of file system change.
type WatchOp uint8

const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

// WatchEvent is a change to a file under a watched source tree.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher reports changes to a source tree.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root recursively until ctx is done or Stop is called.
	Start(ctx context.Context, root string) error
	Stop() error
	// Events yields changes. Bursts of events are coalesced.
	Events() iter.Seq[WatchEvent]
}
