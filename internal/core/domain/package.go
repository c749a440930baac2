package domain

import (
	"slices"
)

// PackageKind classifies an index entry.
type PackageKind string

const (
	// KindPackage is an ordinary package.
	KindPackage PackageKind = "package"
	// KindTool is an auxiliary tool intended for dev shells.
	KindTool PackageKind = "tool"
	// KindToolchain is a language toolchain selectable by channel.
	KindToolchain PackageKind = "toolchain"
)

// Package is a single entry of a package index.
type Package struct {
	Name    string
	Version string
	Kind    PackageKind

	// Channel is the version channel a toolchain belongs to, e.g. "stable".
	Channel string
	// Compiler and Linker name the toolchain's binaries.
	Compiler string
	Linker   string

	// Flake is the flake reference providing the package, e.g. "github:NixOS/nixpkgs/<rev>".
	Flake string
	// Attr is the attribute path inside the flake's legacyPackages.
	Attr string

	// Build is the command a toolchain runs to compile a source tree.
	Build []string
	// Bins lists the executables the package puts on PATH.
	Bins []string

	// Systems restricts availability. Empty means every system.
	Systems []System
}

// AvailableOn reports whether the package can be used on system.
func (p Package) AvailableOn(system System) bool {
	return len(p.Systems) == 0 || slices.Contains(p.Systems, system)
}

// Clone returns a deep copy of p.
func (p Package) Clone() Package {
	p.Build = slices.Clone(p.Build)
	p.Bins = slices.Clone(p.Bins)
	p.Systems = slices.Clone(p.Systems)
	return p
}

// Merge returns p with every non-zero field of patch applied on top.
// The name is never changed.
func (p Package) Merge(patch Package) Package {
	out := p.Clone()
	if patch.Version != "" {
		out.Version = patch.Version
	}
	if patch.Kind != "" {
		out.Kind = patch.Kind
	}
	if patch.Channel != "" {
		out.Channel = patch.Channel
	}
	if patch.Compiler != "" {
		out.Compiler = patch.Compiler
	}
	if patch.Linker != "" {
		out.Linker = patch.Linker
	}
	if patch.Flake != "" {
		out.Flake = patch.Flake
	}
	if patch.Attr != "" {
		out.Attr = patch.Attr
	}
	if len(patch.Build) > 0 {
		out.Build = slices.Clone(patch.Build)
	}
	if len(patch.Bins) > 0 {
		out.Bins = slices.Clone(patch.Bins)
	}
	if len(patch.Systems) > 0 {
		out.Systems = slices.Clone(patch.Systems)
	}
	return out
}

// Equal reports whether two packages are structurally identical.
func (p Package) Equal(o Package) bool {
	return p.Name == o.Name &&
		p.Version == o.Version &&
		p.Kind == o.Kind &&
		p.Channel == o.Channel &&
		p.Compiler == o.Compiler &&
		p.Linker == o.Linker &&
		p.Flake == o.Flake &&
		p.Attr == o.Attr &&
		slices.Equal(p.Build, o.Build) &&
		slices.Equal(p.Bins, o.Bins) &&
		slices.Equal(p.Systems, o.Systems)
}
