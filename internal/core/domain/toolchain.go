package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var channelNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Channel selects a toolchain line, optionally pinned to a version ("stable@1.78.0").
type Channel struct {
	Name string
	Pin  string
}

// ParseChannel parses "name" or "name@version".
func ParseChannel(s string) (Channel, error) {
	name, pin, pinned := strings.Cut(s, "@")
	if !channelNameRegex.MatchString(name) || (pinned && pin == "") {
		return Channel{}, Annotate(ErrInvalidChannel, fmt.Sprintf("cannot parse channel %q", s), "channel", s)
	}
	return Channel{Name: name, Pin: pin}, nil
}

// Pinned reports whether the channel requires an exact version.
func (c Channel) Pinned() bool {
	return c.Pin != ""
}

func (c Channel) String() string {
	if c.Pin == "" {
		return c.Name
	}
	return c.Name + "@" + c.Pin
}

// Toolchain is a compiler and linker resolved for one system.
type Toolchain struct {
	Name     string   `json:"name"`
	Compiler string   `json:"compiler"`
	Linker   string   `json:"linker"`
	Version  string   `json:"version"`
	Channel  string   `json:"channel"`
	System   System   `json:"system"`
	Flake    string   `json:"flake,omitempty"`
	Attr     string   `json:"attr,omitempty"`
	Build    []string `json:"build,omitempty"`
}

// ToolchainFromPackage converts a toolchain index entry into a Toolchain for system.
func ToolchainFromPackage(p Package, system System) Toolchain {
	return Toolchain{
		Name:     p.Name,
		Compiler: p.Compiler,
		Linker:   p.Linker,
		Version:  p.Version,
		Channel:  p.Channel,
		System:   system,
		Flake:    p.Flake,
		Attr:     p.Attr,
		Build:    slices.Clone(p.Build),
	}
}

// Identity is the canonical string identifying the toolchain. It includes the system.
func (t Toolchain) Identity() string {
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('\x00')
	b.WriteString(t.Compiler)
	b.WriteByte('\x00')
	b.WriteString(t.Linker)
	b.WriteByte('\x00')
	b.WriteString(t.Version)
	b.WriteByte('\x00')
	b.WriteString(t.Channel)
	b.WriteByte('\x00')
	b.WriteString(string(t.System))
	b.WriteByte('\x00')
	b.WriteString(t.Flake)
	b.WriteByte('#')
	b.WriteString(t.Attr)
	b.WriteByte('\x00')
	b.WriteString(strings.Join(t.Build, "\x1f"))
	return b.String()
}

// defaultBuild is an offline release build, which leaves binaries in target/release.
var defaultBuild = []string{"cargo", "build", "--release", "--offline"}

// BuildCommand returns the command the toolchain compiles with, or an offline release
// build when the index entry names none.
func (t Toolchain) BuildCommand() []string {
	if len(t.Build) > 0 {
		return slices.Clone(t.Build)
	}
	return slices.Clone(defaultBuild)
}

// AsPackage returns the index entry a dev shell uses to expose the toolchain.
func (t Toolchain) AsPackage() Package {
	return Package{
		Name:     t.Name,
		Version:  t.Version,
		Kind:     KindToolchain,
		Channel:  t.Channel,
		Compiler: t.Compiler,
		Linker:   t.Linker,
		Flake:    t.Flake,
		Attr:     t.Attr,
		Build:    slices.Clone(t.Build),
	}
}
