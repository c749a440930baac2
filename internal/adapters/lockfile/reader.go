// Package lockfile reads dependency lock files. It never writes them.
//
// Two formats are understood, chosen by file name: Cargo.lock (TOML) and kiln.lock, a JSON
// document that may contain comments and trailing commas.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// NativeVersion is the kiln.lock schema version this reader understands.
const NativeVersion = 1

var _ ports.LockReader = (*Reader)(nil)

// Reader implements ports.LockReader.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read loads the lock file at path. An empty path yields an empty lock file.
func (r *Reader) Read(path string) (domain.LockFile, error) {
	if path == "" {
		return domain.LockFile{}, nil
	}

	//nolint:gosec // Path comes from the project configuration
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.LockFile{}, domain.Annotate(domain.ErrLockFileNotFound, path, "path", path)
	}
	if err != nil {
		return domain.LockFile{}, domain.Annotate(domain.ErrLockFileReadFailed, err.Error(), "path", path)
	}

	var entries []domain.LockEntry
	switch {
	case strings.EqualFold(filepath.Ext(path), ".json"), strings.EqualFold(filepath.Base(path), "kiln.lock"):
		entries, err = parseNative(data)
	default:
		entries, err = parseCargo(data)
	}
	if err != nil {
		return domain.LockFile{}, domain.Annotate(domain.ErrLockFileInvalid, err.Error(), "path", path)
	}

	return domain.LockFile{Path: path, Entries: entries}, nil
}

type cargoLock struct {
	Version  int `toml:"version"`
	Packages []struct {
		Name     string `toml:"name"`
		Version  string `toml:"version"`
		Source   string `toml:"source"`
		Checksum string `toml:"checksum"`
	} `toml:"package"`
}

func parseCargo(data []byte) ([]domain.LockEntry, error) {
	var lock cargoLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, err
	}

	entries := make([]domain.LockEntry, 0, len(lock.Packages))
	for _, p := range lock.Packages {
		e := domain.LockEntry{Name: p.Name, Version: p.Version, Source: p.Source}
		if p.Checksum != "" {
			integrity, err := domain.ParseIntegrity(p.Checksum)
			if err != nil {
				return nil, zerr.Wrap(err, p.Name+" "+p.Version)
			}
			e.Integrity = integrity
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type nativeLock struct {
	Version  int `json:"version"`
	Packages []struct {
		Name      string `json:"name"`
		Version   string `json:"version"`
		Source    string `json:"source,omitempty"`
		Integrity string `json:"integrity,omitempty"`
	} `json:"packages"`
}

func parseNative(data []byte) ([]domain.LockEntry, error) {
	var lock nativeLock
	if err := json.Unmarshal(jsonc.ToJSON(data), &lock); err != nil {
		return nil, err
	}
	if lock.Version != NativeVersion {
		return nil, zerr.New(fmt.Sprintf("unsupported kiln.lock version %d", lock.Version))
	}

	entries := make([]domain.LockEntry, 0, len(lock.Packages))
	for _, p := range lock.Packages {
		e := domain.LockEntry{Name: p.Name, Version: p.Version, Source: p.Source}
		if p.Integrity != "" {
			integrity, err := domain.ParseIntegrity(p.Integrity)
			if err != nil {
				return nil, zerr.Wrap(err, p.Name+" "+p.Version)
			}
			e.Integrity = integrity
		}
		entries = append(entries, e)
	}
	return entries, nil
}
