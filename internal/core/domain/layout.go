package domain

import "path/filepath"

const (
	// KilnDirName is the name of the per-project state directory.
	KilnDirName = ".kiln"

	// StoreDirName is the name of the derivation store directory.
	StoreDirName = "store"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// NixHubDirName is the name of the NixHub cache directory.
	NixHubDirName = "nixhub"

	// EnvDirName is the name of the shell environment cache directory.
	EnvDirName = "environments"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "kiln.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the store path relative to the project directory.
func DefaultStorePath() string {
	return filepath.Join(KilnDirName, StoreDirName)
}

// DefaultNixHubCachePath returns the NixHub cache path relative to the project directory.
func DefaultNixHubCachePath() string {
	return filepath.Join(KilnDirName, CacheDirName, NixHubDirName)
}

// DefaultEnvCachePath returns the environment cache path relative to the project directory.
func DefaultEnvCachePath() string {
	return filepath.Join(KilnDirName, CacheDirName, EnvDirName)
}
