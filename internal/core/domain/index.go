package domain

import (
	"iter"
	"maps"
	"slices"
)

// Index maps package names to packages for a single system.
// An Index is never modified after construction.
type Index struct {
	system System
	pkgs   map[string]Package
}

// NewIndex builds an index for system. Later packages replace earlier ones with the same name.
func NewIndex(system System, pkgs ...Package) *Index {
	m := make(map[string]Package, len(pkgs))
	for _, p := range pkgs {
		m[p.Name] = p.Clone()
	}
	return &Index{system: system, pkgs: m}
}

// System returns the system the index is scoped to.
func (i *Index) System() System {
	return i.system
}

// Get returns a copy of the named package.
func (i *Index) Get(name string) (Package, bool) {
	p, ok := i.pkgs[name]
	if !ok {
		return Package{}, false
	}
	return p.Clone(), true
}

// Len returns the number of packages.
func (i *Index) Len() int {
	return len(i.pkgs)
}

// Names returns the sorted package names.
func (i *Index) Names() []string {
	return slices.Sorted(maps.Keys(i.pkgs))
}

// All yields packages in name order.
func (i *Index) All() iter.Seq2[string, Package] {
	return func(yield func(string, Package) bool) {
		for _, name := range i.Names() {
			if !yield(name, i.pkgs[name].Clone()) {
				return
			}
		}
	}
}

// Packages returns copies of every package in name order.
func (i *Index) Packages() []Package {
	out := make([]Package, 0, len(i.pkgs))
	for _, p := range i.All() {
		out = append(out, p)
	}
	return out
}

// Equal reports whether both indices have the same system and structurally identical packages.
func (i *Index) Equal(o *Index) bool {
	if i == nil || o == nil {
		return i == o
	}
	if i.system != o.system || len(i.pkgs) != len(o.pkgs) {
		return false
	}
	for name, p := range i.pkgs {
		q, ok := o.pkgs[name]
		if !ok || !p.Equal(q) {
			return false
		}
	}
	return true
}

// ForSystem returns a new index scoped to system holding only the packages available there.
func (i *Index) ForSystem(system System) *Index {
	out := &Index{system: system, pkgs: make(map[string]Package, len(i.pkgs))}
	for name, p := range i.pkgs {
		if p.AvailableOn(system) {
			out.pkgs[name] = p.Clone()
		}
	}
	return out
}
