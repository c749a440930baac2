package domain

import (
	"fmt"
	"iter"
	"runtime"
	"strings"
)

// System identifies a target platform as "<arch>-<os>", e.g. "x86_64-linux".
type System string

var (
	knownArchs = map[string]struct{}{
		"x86_64":  {},
		"aarch64": {},
		"i686":    {},
		"armv7l":  {},
		"riscv64": {},
	}
	knownOSes = map[string]struct{}{
		"linux":  {},
		"darwin": {},
	}
)

// DefaultSystems is the set of systems evaluated when a project does not name any.
var DefaultSystems = []System{
	"x86_64-linux",
	"aarch64-linux",
	"x86_64-darwin",
	"aarch64-darwin",
}

// ParseSystem validates s and returns it as a System.
func ParseSystem(s string) (System, error) {
	arch, goos, ok := strings.Cut(s, "-")
	if !ok || strings.Contains(goos, "-") {
		return "", Annotate(ErrInvalidSystem, fmt.Sprintf("%q is not <arch>-<os>", s), "system", s)
	}
	if _, ok := knownArchs[arch]; !ok {
		return "", Annotate(ErrInvalidSystem, fmt.Sprintf("unknown architecture %q", arch), "system", s)
	}
	if _, ok := knownOSes[goos]; !ok {
		return "", Annotate(ErrInvalidSystem, fmt.Sprintf("unknown operating system %q", goos), "system", s)
	}
	return System(s), nil
}

// Arch returns the architecture half of the identifier.
func (s System) Arch() string {
	arch, _, _ := strings.Cut(string(s), "-")
	return arch
}

// OS returns the operating system half of the identifier.
func (s System) OS() string {
	_, goos, _ := strings.Cut(string(s), "-")
	return goos
}

func (s System) String() string {
	return string(s)
}

// CurrentSystem maps the running GOOS/GOARCH to a System.
func CurrentSystem() System {
	return systemFor(runtime.GOOS, runtime.GOARCH)
}

func systemFor(goos, goarch string) System {
	var arch string
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7l"
	case "riscv64":
		arch = "riscv64"
	default:
		arch = goarch
	}
	return System(arch + "-" + goos)
}

// Enumerate yields every system in order, once. The returned sequence can be ranged over
// any number of times.
func Enumerate(systems []System) iter.Seq[System] {
	return func(yield func(System) bool) {
		seen := make(map[System]struct{}, len(systems))
		for _, s := range systems {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			if !yield(s) {
				return
			}
		}
	}
}
