package domain

import (
	"fmt"
	"strings"
)

// ToolSpec asks for a tool by name and version, resolved against an external catalog.
type ToolSpec struct {
	Alias   string
	Name    string
	Version string
}

// ParseToolSpec parses "name@version". The alias defaults to the name.
func ParseToolSpec(alias, s string) (ToolSpec, error) {
	name, version, ok := strings.Cut(s, "@")
	if !ok || name == "" || version == "" || strings.ContainsAny(s, " \t") {
		return ToolSpec{}, Annotate(ErrInvalidToolSpec, fmt.Sprintf("cannot parse tool spec %q", s), "tool", alias)
	}
	if alias == "" {
		alias = name
	}
	return ToolSpec{Alias: alias, Name: name, Version: version}, nil
}

// Ref returns the reference a dev shell uses to ask for the tool.
func (t ToolSpec) Ref() ToolRef {
	if t.Alias != "" {
		return ToolRef(t.Alias)
	}
	return ToolRef(t.Name)
}

// Project is the loaded configuration. It is passed explicitly into the pipeline.
type Project struct {
	// Dir is the directory holding kiln.yaml.
	Dir string

	// Systems is nil when kiln.yaml names none. An empty, non-nil slice enumerates nothing.
	Systems []System
	Channel Channel

	// SourceRoot, ManifestPath and LockPath are absolute.
	SourceRoot   string
	ManifestPath string
	LockPath     string

	// Program is the derivation output the app wrapper points at. Empty means the manifest name.
	Program string

	// Packages form the base index before per-system narrowing.
	Packages []Package
	// Tools are resolved through the tool catalog and added to the base index.
	Tools []ToolSpec
	// Overlays apply in order.
	Overlays []Overlay

	ShellTools ToolSet
}

// EnumeratedSystems returns the project systems, or DefaultSystems when the list was omitted.
func (p *Project) EnumeratedSystems() []System {
	if p.Systems == nil {
		return DefaultSystems
	}
	return p.Systems
}
