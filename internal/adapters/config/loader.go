// Package config provides the configuration loader for kiln.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// SchemaVersion is the kiln.yaml version this loader understands.
	SchemaVersion = "1"

	// DefaultChannel is used when kiln.yaml names no channel.
	DefaultChannel = "stable"

	// DefaultManifest is the source manifest path relative to the source root.
	DefaultManifest = "Cargo.toml"

	// DefaultLockfile is the lock file path relative to the source root.
	DefaultLockfile = "Cargo.lock"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds kiln.yaml in cwd or its closest ancestor and returns the project it describes.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var kilnfile Kilnfile
	if err := readAndUnmarshalYAML(configPath, &kilnfile); err != nil {
		return nil, err
	}

	if kilnfile.Version != "" && kilnfile.Version != SchemaVersion {
		l.Logger.Warn(fmt.Sprintf("%s declares version %q, expected %q", domain.ConfigFileName, kilnfile.Version, SchemaVersion))
	}

	project, err := l.buildProject(filepath.Dir(configPath), &kilnfile)
	if err != nil {
		return nil, zerr.With(err, "config", configPath)
	}
	return project, nil
}

// Root implements ports.ConfigLoader.
func (l *Loader) Root(cwd string) (string, error) {
	return FindRoot(cwd)
}

// FindRoot returns the directory of the kiln.yaml governing cwd.
func FindRoot(cwd string) (string, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", domain.Annotate(domain.ErrConfigNotFound, "searched "+cwd+" and its parents", "cwd", cwd)
}

func readAndUnmarshalYAML(path string, out any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return domain.Annotate(domain.ErrConfigReadFailed, err.Error(), "path", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return domain.Annotate(domain.ErrConfigParseFailed, err.Error(), "path", path)
	}
	return nil
}

func (l *Loader) buildProject(dir string, kf *Kilnfile) (*domain.Project, error) {
	systems, err := parseProjectSystems(kf.Systems)
	if err != nil {
		return nil, zerr.With(err, "field", "systems")
	}

	channelName := kf.Channel
	if channelName == "" {
		channelName = DefaultChannel
	}
	channel, err := domain.ParseChannel(channelName)
	if err != nil {
		return nil, zerr.With(err, "field", "channel")
	}

	sourceRoot := resolvePath(dir, kf.Source, ".")

	packages, err := buildPackages(kf.Packages)
	if err != nil {
		return nil, err
	}

	tools, err := buildTools(kf.Tools)
	if err != nil {
		return nil, err
	}

	overlays, err := buildOverlays(dir, kf.Overlays)
	if err != nil {
		return nil, err
	}

	shellTools := make([]domain.ToolRef, 0, len(kf.Shell.Tools))
	for _, t := range kf.Shell.Tools {
		shellTools = append(shellTools, domain.ToolRef(t))
	}

	return &domain.Project{
		Dir:          dir,
		Systems:      systems,
		Channel:      channel,
		SourceRoot:   sourceRoot,
		ManifestPath: resolvePath(sourceRoot, kf.Manifest, DefaultManifest),
		LockPath:     resolvePath(sourceRoot, kf.Lockfile, DefaultLockfile),
		Program:      kf.App.Program,
		Packages:     packages,
		Tools:        tools,
		Overlays:     overlays,
		ShellTools:   domain.NewToolSet(shellTools...),
	}, nil
}

// resolvePath joins a relative path onto base. An empty path falls back to def.
func resolvePath(base, path, def string) string {
	if path == "" {
		path = def
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// parseProjectSystems keeps an omitted list (nil, the default systems) apart from an explicit
// empty one, which enumerates no systems.
func parseProjectSystems(raw *[]string) ([]domain.System, error) {
	if raw == nil {
		return nil, nil
	}
	systems, err := parseSystems(*raw)
	if err != nil {
		return nil, err
	}
	if systems == nil {
		systems = []domain.System{}
	}
	return systems, nil
}

func parseSystems(raw []string) ([]domain.System, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	systems := make([]domain.System, 0, len(raw))
	for _, s := range raw {
		system, err := domain.ParseSystem(s)
		if err != nil {
			return nil, err
		}
		systems = append(systems, system)
	}
	return systems, nil
}

func buildPackages(dtos map[string]PackageDTO) ([]domain.Package, error) {
	// Map iteration order is random; sort for a deterministic base index.
	names := slices.Sorted(maps.Keys(dtos))
	packages := make([]domain.Package, 0, len(names))
	for _, name := range names {
		pkg, err := buildPackage(name, dtos[name])
		if err != nil {
			return nil, err
		}
		if err := validatePackage(pkg); err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

func buildPackage(name string, dto PackageDTO) (domain.Package, error) {
	systems, err := parseSystems(dto.Systems)
	if err != nil {
		return domain.Package{}, zerr.With(err, "package", name)
	}
	return domain.Package{
		Name:     name,
		Version:  dto.Version,
		Kind:     domain.PackageKind(dto.Kind),
		Channel:  dto.Channel,
		Compiler: dto.Compiler,
		Linker:   dto.Linker,
		Flake:    dto.Flake,
		Attr:     dto.Attr,
		Build:    slices.Clone(dto.Build),
		Bins:     slices.Clone(dto.Bins),
		Systems:  systems,
	}, nil
}

func validatePackage(pkg domain.Package) error {
	switch pkg.Kind {
	case "":
		return domain.Annotate(domain.ErrInvalidPackage, "missing kind", "package", pkg.Name)
	case domain.KindPackage, domain.KindTool:
	case domain.KindToolchain:
		if pkg.Channel == "" || pkg.Compiler == "" {
			return domain.Annotate(domain.ErrInvalidPackage, "a toolchain needs a channel and a compiler",
				"package", pkg.Name)
		}
	default:
		return domain.Annotate(domain.ErrInvalidPackage, fmt.Sprintf("unknown kind %q", pkg.Kind),
			"package", pkg.Name)
	}
	if pkg.Version == "" {
		return domain.Annotate(domain.ErrInvalidPackage, "missing version", "package", pkg.Name)
	}
	return nil
}

func buildTools(raw map[string]string) ([]domain.ToolSpec, error) {
	aliases := slices.Sorted(maps.Keys(raw))
	tools := make([]domain.ToolSpec, 0, len(aliases))
	for _, alias := range aliases {
		spec, err := domain.ParseToolSpec(alias, raw[alias])
		if err != nil {
			return nil, err
		}
		tools = append(tools, spec)
	}
	return tools, nil
}

func buildOverlays(dir string, dtos []OverlayDTO) ([]domain.Overlay, error) {
	overlays := make([]domain.Overlay, 0, len(dtos))
	for i, dto := range dtos {
		name := dto.Name
		if name == "" && dto.File != "" {
			name = filepath.Base(dto.File)
		}
		if name == "" {
			name = fmt.Sprintf("overlays[%d]", i)
		}

		patches := dto.Patches
		if dto.File != "" {
			if len(dto.Patches) > 0 {
				return nil, domain.Annotate(domain.ErrConfigParseFailed, "an overlay has either a file or patches",
					"overlay", name)
			}
			var file OverlayFile
			if err := readAndUnmarshalYAML(resolvePath(dir, dto.File, ""), &file); err != nil {
				return nil, zerr.With(err, "overlay", name)
			}
			patches = file.Patches
		}

		overlay, err := buildOverlay(name, patches)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, overlay)
	}
	return overlays, nil
}

func buildOverlay(name string, dtos []PatchDTO) (domain.PatchOverlay, error) {
	overlay := domain.PatchOverlay{OverlayName: name, Patches: make([]domain.ScopedPatch, 0, len(dtos))}
	for _, dto := range dtos {
		op := domain.PatchOp(dto.Op)
		if op == "" {
			op = domain.OpInject
		}
		if op != domain.OpInject && op != domain.OpPatch {
			return domain.PatchOverlay{}, domain.Annotate(domain.ErrConfigParseFailed, fmt.Sprintf("unknown op %q", dto.Op),
				"overlay", name, "package", dto.Package.Name)
		}

		systems, err := parseSystems(dto.Systems)
		if err != nil {
			return domain.PatchOverlay{}, zerr.With(err, "overlay", name)
		}
		pkg, err := buildPackage(dto.Package.Name, dto.Package.PackageDTO)
		if err != nil {
			return domain.PatchOverlay{}, zerr.With(err, "overlay", name)
		}
		if op == domain.OpInject {
			if pkg.Kind == "" {
				pkg.Kind = domain.KindPackage
			}
			if err := validatePackage(pkg); err != nil {
				return domain.PatchOverlay{}, zerr.With(err, "overlay", name)
			}
		}

		overlay.Patches = append(overlay.Patches, domain.ScopedPatch{
			Patch:   domain.Patch{Op: op, Package: pkg},
			Systems: systems,
		})
	}
	return overlay, nil
}
