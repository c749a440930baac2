// Package compositor merges overlays into per-system package indices.
package compositor

import (
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Compose narrows base to system and applies overlays in order. On a name collision the
// later overlay wins. The result is a new index; base is left untouched.
func Compose(base *domain.Index, overlays []domain.Overlay, system domain.System) (*domain.Index, error) {
	if base == nil {
		base = domain.NewIndex(system)
	}
	current := base.ForSystem(system)

	for _, overlay := range overlays {
		delta, err := overlay.Delta(current, system)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "overlay failed"), "overlay", overlay.Name())
		}
		current, err = apply(current, delta, overlay.Name())
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

func apply(index *domain.Index, delta domain.Delta, overlay string) (*domain.Index, error) {
	pkgs := make(map[string]domain.Package, index.Len()+len(delta))
	for name, p := range index.All() {
		pkgs[name] = p
	}

	for _, patch := range delta {
		name := patch.Package.Name
		if name == "" {
			return nil, domain.Annotate(domain.ErrOverlayConflict,
				fmt.Sprintf("overlay %s: %s without a package name", overlay, patch.Op), "overlay", overlay)
		}

		switch patch.Op {
		case domain.OpInject:
			pkgs[name] = patch.Package.Clone()
		case domain.OpPatch:
			existing, ok := pkgs[name]
			if !ok {
				return nil, domain.Annotate(domain.ErrOverlayConflict,
					fmt.Sprintf("overlay %s patches undefined package %s", overlay, name),
					"overlay", overlay, "package", name)
			}
			pkgs[name] = existing.Merge(patch.Package)
		default:
			return nil, domain.Annotate(domain.ErrOverlayConflict,
				fmt.Sprintf("overlay %s: unknown operation %q on %s", overlay, patch.Op, name),
				"overlay", overlay, "package", name)
		}
	}

	// An overlay may inject or patch a package onto systems it does not support.
	return domain.NewIndex(index.System(), slices.Collect(maps.Values(pkgs))...).ForSystem(index.System()), nil
}
