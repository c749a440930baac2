package domain

import "slices"

// PatchOp is the operation a patch performs on an index.
type PatchOp string

const (
	// OpInject adds a package or replaces an existing one.
	OpInject PatchOp = "inject"
	// OpPatch merges fields into a package that must already exist.
	OpPatch PatchOp = "patch"
)

// Patch is a single change produced by an overlay.
type Patch struct {
	Op      PatchOp
	Package Package
}

// Delta is the ordered list of patches an overlay produces for a base index.
type Delta []Patch

// Overlay computes a delta from the index it is applied to.
// Implementations must be pure: the same base and system always give the same delta.
type Overlay interface {
	Name() string
	Delta(base *Index, system System) (Delta, error)
}

// OverlayFunc adapts a function to the Overlay interface.
type OverlayFunc struct {
	OverlayName string
	Fn          func(base *Index, system System) (Delta, error)
}

// Name returns the overlay name.
func (o OverlayFunc) Name() string {
	return o.OverlayName
}

// Delta calls the wrapped function.
func (o OverlayFunc) Delta(base *Index, system System) (Delta, error) {
	return o.Fn(base, system)
}

// ScopedPatch is a patch limited to a set of systems. No systems means every system.
type ScopedPatch struct {
	Patch
	Systems []System
}

// PatchOverlay is a declarative overlay whose delta does not depend on the base index.
type PatchOverlay struct {
	OverlayName string
	Patches     []ScopedPatch
}

// Name returns the overlay name.
func (o PatchOverlay) Name() string {
	return o.OverlayName
}

// Delta returns the patches that apply to system, in declaration order.
func (o PatchOverlay) Delta(_ *Index, system System) (Delta, error) {
	delta := make(Delta, 0, len(o.Patches))
	for _, p := range o.Patches {
		if len(p.Systems) > 0 && !slices.Contains(p.Systems, system) {
			continue
		}
		delta = append(delta, Patch{Op: p.Op, Package: p.Package.Clone()})
	}
	return delta, nil
}
