package nix

import "time"

// buildResults is the JSON printed by `nix build --json`.
type buildResults []struct {
	DrvPath string            `json:"drvPath"`
	Outputs map[string]string `json:"outputs"`
}

// cacheEntry represents a cached resolution result with per-system installables.
type cacheEntry struct {
	Name      string                 `json:"name"`
	Version   string                 `json:"version"`
	Resolved  string                 `json:"resolved"`
	Systems   map[string]SystemCache `json:"systems"`
	Timestamp time.Time              `json:"timestamp"`
}

// SystemCache represents cached data for a specific system architecture.
type SystemCache struct {
	FlakeInstallable FlakeInstallable `json:"flake_installable"`
	Outputs          []Output         `json:"outputs"`
}

// NixHubResponse represents the complete API response from NixHub v2/resolve.
type NixHubResponse struct {
	Name    string                    `json:"name"`
	Version string                    `json:"version"`
	Summary string                    `json:"summary"`
	Systems map[string]SystemResponse `json:"systems"`
}

// SystemResponse represents package information for a specific system architecture.
type SystemResponse struct {
	FlakeInstallable FlakeInstallable `json:"flake_installable"`
	LastUpdated      string           `json:"last_updated"`
	Outputs          []Output         `json:"outputs"`
}

// FlakeInstallable represents the flake reference information.
type FlakeInstallable struct {
	Ref      FlakeRef `json:"ref"`
	AttrPath string   `json:"attr_path"`
}

// FlakeRef represents the git reference for the flake.
type FlakeRef struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Rev   string `json:"rev"`
}

// Output represents a package output.
type Output struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Default bool   `json:"default"`
	Nar     string `json:"nar"`
}

// devEnvOutput represents the JSON structure from `nix print-dev-env --json`.
type devEnvOutput struct {
	Variables map[string]devEnvVariable `json:"variables"`
}

type devEnvVariable struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}
