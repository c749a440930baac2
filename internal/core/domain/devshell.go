package domain

import (
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// ToolRef names an auxiliary tool by its index entry.
type ToolRef string

// ToolSet is an unordered set of tool references.
type ToolSet map[ToolRef]struct{}

// NewToolSet builds a set from refs; duplicates collapse.
func NewToolSet(refs ...ToolRef) ToolSet {
	s := make(ToolSet, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Sorted returns the references in lexical order.
func (s ToolSet) Sorted() []ToolRef {
	return slices.Sorted(maps.Keys(s))
}

// DevShell is an ephemeral set of tools for interactive use. It is never persisted.
type DevShell struct {
	// ID identifies this session only.
	ID        string
	System    System
	Toolchain Toolchain
	// Tools are the resolved auxiliary tools in name order, without the toolchain.
	Tools []Package
}

// Packages returns the toolchain followed by every tool.
func (d *DevShell) Packages() []Package {
	out := make([]Package, 0, len(d.Tools)+1)
	out = append(out, d.Toolchain.AsPackage())
	for _, t := range d.Tools {
		out = append(out, t.Clone())
	}
	return out
}

type shellKeyEntry struct {
	Name    string `cbor:"1,keyasint"`
	Version string `cbor:"2,keyasint"`
	Flake   string `cbor:"3,keyasint"`
	Attr    string `cbor:"4,keyasint"`
}

// Key identifies the shell's tool set on its system. Two shells with the same tools share a
// key regardless of their session IDs.
func (d *DevShell) Key() (string, error) {
	entries := make([]shellKeyEntry, 0, len(d.Tools)+1)
	for _, p := range d.Packages() {
		entries = append(entries, shellKeyEntry{Name: p.Name, Version: p.Version, Flake: p.Flake, Attr: p.Attr})
	}
	sum, err := hashCanonical(shellDomainKey, struct {
		System  System          `cbor:"1,keyasint"`
		Entries []shellKeyEntry `cbor:"2,keyasint"`
	}{d.System, entries})
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode dev shell")
	}
	return encodeDigest("blake3", sum[:]), nil
}
