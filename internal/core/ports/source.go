package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// SourceScanner reads a source tree and the manifest it declares.
//
//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type SourceScanner interface {
	// Scan walks root, computing its content digest, and reads the manifest at manifestPath.
	Scan(ctx context.Context, root, manifestPath string) (domain.SourceTree, error)

	// Fingerprint returns a cheap digest of root that changes whenever a file is added,
	// removed or modified.
	Fingerprint(root string) (string, error)
}

// LockReader loads lock files. It never writes them.
type LockReader interface {
	Read(path string) (domain.LockFile, error)
}
