package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/kiln/internal/core/domain"
)

// cargoManifest is the subset of Cargo.toml kiln reads.
type cargoManifest struct {
	Package struct {
		Name     string `toml:"name"`
		Version  any    `toml:"version"` // a table when inherited from a workspace
		Autobins *bool  `toml:"autobins"`
	} `toml:"package"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
	Dependencies      map[string]any `toml:"dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

// ReadManifest parses the Cargo.toml at path.
//
// Binaries are the [[bin]] targets plus, unless autobins is off, src/main.rs (named after the
// package) and every src/bin target. Dependencies are the locked names of [dependencies] and
// [build-dependencies], honoring renames.
func ReadManifest(path string) (domain.Manifest, error) {
	var m cargoManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return domain.Manifest{}, domain.Annotate(domain.ErrManifestReadFailed, err.Error(), "path", path)
	}
	if m.Package.Name == "" {
		return domain.Manifest{}, domain.Annotate(domain.ErrManifestReadFailed, "manifest has no package name", "path", path)
	}

	version, _ := m.Package.Version.(string)
	out := domain.Manifest{
		Name:    m.Package.Name,
		Version: version,
	}

	for _, b := range m.Bin {
		if b.Name != "" {
			out.Binaries = append(out.Binaries, b.Name)
		}
	}
	if m.Package.Autobins == nil || *m.Package.Autobins {
		out.Binaries = append(out.Binaries, autobins(filepath.Dir(path), m.Package.Name)...)
	}
	slices.Sort(out.Binaries)
	out.Binaries = slices.Compact(out.Binaries)

	for _, deps := range []map[string]any{m.Dependencies, m.BuildDependencies} {
		for name, spec := range deps {
			out.Dependencies = append(out.Dependencies, lockedName(name, spec))
		}
	}
	slices.Sort(out.Dependencies)
	out.Dependencies = slices.Compact(out.Dependencies)

	return out, nil
}

// lockedName returns the name a dependency is locked under: its package key when renamed.
func lockedName(name string, spec any) string {
	if table, ok := spec.(map[string]any); ok {
		if pkg, ok := table["package"].(string); ok && pkg != "" {
			return pkg
		}
	}
	return name
}

func autobins(dir, pkgName string) []string {
	var bins []string
	if exists(filepath.Join(dir, "src", "main.rs")) {
		bins = append(bins, pkgName)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "src", "bin"))
	if err != nil {
		return bins
	}
	for _, e := range entries {
		switch {
		case !e.IsDir() && strings.HasSuffix(e.Name(), ".rs"):
			bins = append(bins, strings.TrimSuffix(e.Name(), ".rs"))
		case e.IsDir() && exists(filepath.Join(dir, "src", "bin", e.Name(), "main.rs")):
			bins = append(bins, e.Name())
		}
	}
	return bins
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
