package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrOverlayConflict is returned when an overlay is malformed, e.g. it patches a package
	// that is not defined in the index it is applied to.
	ErrOverlayConflict = zerr.New("overlay conflict")

	// ErrToolchainNotFound is returned when no toolchain matches the requested channel on a system.
	ErrToolchainNotFound = zerr.New("toolchain not found")

	// ErrLockFileInvalid is returned when the lock file is inconsistent or corrupt.
	ErrLockFileInvalid = zerr.New("lock file invalid")

	// ErrNoOutputArtifact is returned when wrapping a derivation that declares no outputs.
	ErrNoOutputArtifact = zerr.New("derivation has no output artifact")

	// ErrOutputNotFound is returned when the requested output is not declared by a derivation.
	ErrOutputNotFound = zerr.New("output not found")

	// ErrToolUnavailable is returned when a dev shell tool cannot be resolved for a system.
	ErrToolUnavailable = zerr.New("tool unavailable")

	// ErrSystemMismatch is returned when values scoped to different systems are combined.
	ErrSystemMismatch = zerr.New("system mismatch")

	// ErrInvalidSystem is returned when a system identifier cannot be parsed.
	ErrInvalidSystem = zerr.New("invalid system identifier")

	// ErrInvalidChannel is returned when a version channel cannot be parsed.
	ErrInvalidChannel = zerr.New("invalid version channel")

	// ErrInvalidIntegrity is returned when an integrity digest cannot be parsed.
	ErrInvalidIntegrity = zerr.New("invalid integrity digest")

	// ErrSystemNotEnumerated is returned when a requested system is not part of the project systems.
	ErrSystemNotEnumerated = zerr.New("system is not enumerated by the project")

	// ErrConfigNotFound is returned when no kiln.yaml can be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidPackage is returned when a package definition is incomplete.
	ErrInvalidPackage = zerr.New("invalid package definition")

	// ErrManifestReadFailed is returned when the source manifest cannot be read or parsed.
	ErrManifestReadFailed = zerr.New("failed to read source manifest")

	// ErrSourceScanFailed is returned when the source tree cannot be walked or serialized.
	ErrSourceScanFailed = zerr.New("failed to scan source tree")

	// ErrLockFileNotFound is returned when the lock file does not exist.
	ErrLockFileNotFound = zerr.New("lock file not found")

	// ErrLockFileReadFailed is returned when the lock file cannot be read.
	ErrLockFileReadFailed = zerr.New("failed to read lock file")

	// ErrStoreReadFailed is returned when a store record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read store record")

	// ErrStoreWriteFailed is returned when a store record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write store record")

	// ErrStoreCorrupt is returned when a store record cannot be decoded.
	ErrStoreCorrupt = zerr.New("store record is corrupt")

	// ErrNixCacheCreateFailed is returned when the NixHub cache directory cannot be created.
	ErrNixCacheCreateFailed = zerr.New("failed to create Nix cache directory")

	// ErrNixCacheReadFailed is returned when reading from the NixHub cache fails.
	ErrNixCacheReadFailed = zerr.New("failed to read from Nix cache")

	// ErrNixCacheWriteFailed is returned when writing to the NixHub cache fails.
	ErrNixCacheWriteFailed = zerr.New("failed to write to Nix cache")

	// ErrNixAPIRequestFailed is returned when the NixHub API request fails.
	ErrNixAPIRequestFailed = zerr.New("NixHub API request failed")

	// ErrNixAPIParseFailed is returned when the NixHub API response cannot be parsed.
	ErrNixAPIParseFailed = zerr.New("failed to parse NixHub API response")

	// ErrNixPackageNotFound is returned when NixHub does not know a package version.
	ErrNixPackageNotFound = zerr.New("package not found in NixHub")

	// ErrInvalidToolSpec is returned when a tool spec is not of the form name@version.
	ErrInvalidToolSpec = zerr.New("invalid tool spec, expected name@version")

	// ErrRealizeFailed is returned when the build runtime fails to realize a derivation.
	ErrRealizeFailed = zerr.New("failed to realize derivation")

	// ErrEnvironmentFailed is returned when the build runtime fails to produce a shell environment.
	ErrEnvironmentFailed = zerr.New("failed to compute shell environment")

	// ErrProcessFailed is returned when a spawned process exits unsuccessfully.
	ErrProcessFailed = zerr.New("process failed")

	// ErrEvaluationFailed is returned when at least one requested system failed.
	ErrEvaluationFailed = zerr.New("evaluation failed")
)

// kinds lists the error kinds surfaced to operators, in classification order.
var kinds = []struct {
	err  error
	name string
}{
	{ErrOverlayConflict, "OverlayConflict"},
	{ErrToolchainNotFound, "ToolchainNotFound"},
	{ErrLockFileInvalid, "LockFileInvalid"},
	{ErrNoOutputArtifact, "NoOutputArtifact"},
	{ErrOutputNotFound, "OutputNotFound"},
	{ErrToolUnavailable, "ToolUnavailable"},
	{ErrSystemMismatch, "SystemMismatch"},
	{ErrRealizeFailed, "RealizeFailed"},
	{ErrEnvironmentFailed, "EnvironmentFailed"},
	{ErrProcessFailed, "ProcessFailed"},
	{ErrInvalidIntegrity, "LockFileInvalid"},
	{ErrLockFileNotFound, "LockFileNotFound"},
	{ErrLockFileReadFailed, "LockFileUnreadable"},
	{ErrManifestReadFailed, "ManifestInvalid"},
	{ErrSourceScanFailed, "SourceScanFailed"},
	{ErrConfigNotFound, "ConfigNotFound"},
	{ErrConfigReadFailed, "ConfigInvalid"},
	{ErrConfigParseFailed, "ConfigInvalid"},
	{ErrInvalidPackage, "ConfigInvalid"},
	{ErrInvalidChannel, "ConfigInvalid"},
	{ErrInvalidToolSpec, "ConfigInvalid"},
	{ErrInvalidSystem, "InvalidSystem"},
	{ErrSystemNotEnumerated, "SystemNotEnumerated"},
}

// Kind returns the operator facing kind of err, or "Internal" when err matches no known kind.
// It returns an empty string for a nil error.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// Annotate wraps sentinel with a message and metadata pairs. The sentinel stays in the
// chain, so errors.Is keeps matching it.
func Annotate(sentinel error, msg string, kv ...any) error {
	err := zerr.Wrap(sentinel, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		err = zerr.With(err, key, kv[i+1])
	}
	return err
}
