package config

// Kilnfile represents the structure of the kiln.yaml configuration file.
type Kilnfile struct {
	Version  string                `yaml:"version"`
	Systems  *[]string             `yaml:"systems"`
	Channel  string                `yaml:"channel"`
	Source   string                `yaml:"source"`
	Manifest string                `yaml:"manifest"`
	Lockfile string                `yaml:"lockfile"`
	App      AppDTO                `yaml:"app"`
	Packages map[string]PackageDTO `yaml:"packages"`
	Tools    map[string]string     `yaml:"tools"`
	Overlays []OverlayDTO          `yaml:"overlays"`
	Shell    ShellDTO              `yaml:"shell"`
}

// AppDTO selects the derivation output the app wrapper runs.
type AppDTO struct {
	Program string `yaml:"program"`
}

// ShellDTO configures the dev shell.
type ShellDTO struct {
	Tools []string `yaml:"tools"`
}

// PackageDTO represents a base index entry. The name is the map key.
type PackageDTO struct {
	Version  string   `yaml:"version"`
	Kind     string   `yaml:"kind"`
	Channel  string   `yaml:"channel"`
	Compiler string   `yaml:"compiler"`
	Linker   string   `yaml:"linker"`
	Flake    string   `yaml:"flake"`
	Attr     string   `yaml:"attr"`
	Build    []string `yaml:"build"`
	Bins     []string `yaml:"bins"`
	Systems  []string `yaml:"systems"`
}

// OverlayDTO is either a list of inline patches or a reference to a file holding them.
type OverlayDTO struct {
	Name    string     `yaml:"name"`
	File    string     `yaml:"file"`
	Patches []PatchDTO `yaml:"patches"`
}

// OverlayFile is the structure of an overlay file referenced from kiln.yaml.
type OverlayFile struct {
	Patches []PatchDTO `yaml:"patches"`
}

// PatchDTO is a single overlay patch. Systems limits it to a subset of the project systems.
type PatchDTO struct {
	Op      string          `yaml:"op"`
	Systems []string        `yaml:"systems"`
	Package PatchPackageDTO `yaml:"package"`
}

// PatchPackageDTO names the package a patch injects or changes.
type PatchPackageDTO struct {
	Name       string `yaml:"name"`
	PackageDTO `yaml:",inline"`
}
