package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ToolCatalog resolves tool specs to per-system index entries.
//
//go:generate go run go.uber.org/mock/mockgen -source=catalog.go -destination=mocks/mock_catalog.go -package=mocks
type ToolCatalog interface {
	// Resolve returns the package providing spec on every system the catalog knows it for.
	Resolve(ctx context.Context, spec domain.ToolSpec) (map[domain.System]domain.Package, error)
}
