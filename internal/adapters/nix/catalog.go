// Package nix implements the tool catalog and the build runtime on top of Nix.
package nix

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	nixHubAPIBase     = "https://search.devbox.sh/v2/resolve"
	httpClientTimeout = 30 * time.Second
	defaultFlakeOwner = "NixOS"
	defaultFlakeRepo  = "nixpkgs"
)

var _ ports.ToolCatalog = (*Catalog)(nil)

// Catalog implements ports.ToolCatalog using the NixHub API with a local cache.
type Catalog struct {
	cacheDir   string
	baseURL    string
	httpClient *http.Client
}

// NewCatalog creates a Catalog that caches resolutions in cacheDir.
// The directory is created on the first write.
func NewCatalog(cacheDir string) *Catalog {
	return NewCatalogWithClient(cacheDir, &http.Client{Timeout: httpClientTimeout})
}

// NewCatalogWithClient creates a Catalog with a custom HTTP client.
func NewCatalogWithClient(cacheDir string, client *http.Client) *Catalog {
	return &Catalog{
		cacheDir:   filepath.Clean(cacheDir),
		baseURL:    nixHubAPIBase,
		httpClient: client,
	}
}

// Resolve returns the package spec resolves to on every supported system it is published for.
// It checks the cache first, then queries NixHub.
func (c *Catalog) Resolve(ctx context.Context, spec domain.ToolSpec) (map[domain.System]domain.Package, error) {
	cachePath := c.cachePath(spec)

	entry, err := loadCacheEntry(cachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		resp, queryErr := c.queryNixHub(ctx, spec)
		if queryErr != nil {
			return nil, queryErr
		}
		entry = newCacheEntry(spec, resp)
		if len(entry.Systems) == 0 {
			return nil, domain.Annotate(domain.ErrNixPackageNotFound, "no supported system",
				"tool", spec.Name, "version", spec.Version)
		}

		// A failed cache write only costs a lookup next time.
		_ = c.saveCacheEntry(cachePath, entry)
	}

	return entry.packages(spec), nil
}

// cachePath returns the file path for the cache entry of spec.
func (c *Catalog) cachePath(spec domain.ToolSpec) string {
	sum := blake3.Sum256([]byte(spec.Name + "@" + spec.Version))
	return filepath.Join(c.cacheDir, hex.EncodeToString(sum[:16])+".json")
}

func newCacheEntry(spec domain.ToolSpec, resp *NixHubResponse) *cacheEntry {
	systems := make(map[string]SystemCache, len(resp.Systems))
	for name, data := range resp.Systems {
		if !slices.Contains(domain.DefaultSystems, domain.System(name)) {
			continue
		}
		systems[name] = SystemCache{
			FlakeInstallable: data.FlakeInstallable,
			Outputs:          data.Outputs,
		}
	}
	return &cacheEntry{
		Name:      spec.Name,
		Version:   spec.Version,
		Resolved:  resp.Version,
		Systems:   systems,
		Timestamp: time.Now().UTC(),
	}
}

// packages converts the cached installables into index entries.
func (e *cacheEntry) packages(spec domain.ToolSpec) map[domain.System]domain.Package {
	version := e.Resolved
	if version == "" {
		version = spec.Version
	}

	out := make(map[domain.System]domain.Package, len(e.Systems))
	for name, data := range e.Systems {
		system := domain.System(name)
		out[system] = domain.Package{
			Name:    spec.Name,
			Version: version,
			Kind:    domain.KindTool,
			Flake:   flakeRef(data.FlakeInstallable.Ref),
			Attr:    trimAttrPath(data.FlakeInstallable.AttrPath, system),
			Systems: []domain.System{system},
		}
	}
	return out
}

func flakeRef(ref FlakeRef) string {
	owner, repo := ref.Owner, ref.Repo
	if owner == "" {
		owner = defaultFlakeOwner
	}
	if repo == "" {
		repo = defaultFlakeRepo
	}
	return fmt.Sprintf("github:%s/%s/%s", owner, repo, ref.Rev)
}

// trimAttrPath strips the "legacyPackages.<system>." prefix NixHub reports.
func trimAttrPath(attr string, system domain.System) string {
	return strings.TrimPrefix(attr, "legacyPackages."+string(system)+".")
}

func loadCacheEntry(path string) (*cacheEntry, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, domain.Annotate(domain.ErrNixCacheReadFailed, err.Error(), "path", path)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is refetched.
		return nil, fs.ErrNotExist
	}
	return &entry, nil
}

func (c *Catalog) saveCacheEntry(path string, entry *cacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache entry")
	}
	if err := os.MkdirAll(c.cacheDir, domain.DirPerm); err != nil {
		return domain.Annotate(domain.ErrNixCacheCreateFailed, err.Error(), "path", c.cacheDir)
	}
	if err := atomicWriteFile(path, data); err != nil {
		return domain.Annotate(domain.ErrNixCacheWriteFailed, err.Error(), "path", path)
	}
	return nil
}

// queryNixHub queries the NixHub API to resolve a package version.
func (c *Catalog) queryNixHub(ctx context.Context, spec domain.ToolSpec) (*NixHubResponse, error) {
	query := url.Values{}
	query.Set("name", spec.Name)
	query.Set("version", spec.Version)
	endpoint := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, domain.Annotate(domain.ErrNixAPIRequestFailed, err.Error(), "tool", spec.Name)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Annotate(domain.ErrNixAPIRequestFailed, err.Error(), "tool", spec.Name)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.Annotate(domain.ErrNixPackageNotFound, spec.Name+"@"+spec.Version,
			"tool", spec.Name, "version", spec.Version)
	default:
		return nil, domain.Annotate(domain.ErrNixAPIRequestFailed, resp.Status,
			"status_code", resp.StatusCode, "tool", spec.Name, "version", spec.Version)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Annotate(domain.ErrNixAPIRequestFailed, err.Error(), "tool", spec.Name)
	}

	var apiResp NixHubResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, domain.Annotate(domain.ErrNixAPIParseFailed, err.Error(), "tool", spec.Name)
	}
	if len(apiResp.Systems) == 0 {
		return nil, domain.Annotate(domain.ErrNixPackageNotFound, spec.Name+"@"+spec.Version,
			"tool", spec.Name, "version", spec.Version)
	}
	return &apiResp, nil
}

// atomicWriteFile writes data to a file atomically by writing to a temp file and renaming it.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
