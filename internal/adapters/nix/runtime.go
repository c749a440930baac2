package nix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// excludedVars are interactive or user specific variables print-dev-env reports that a
// shell must keep from the host.
var excludedVars = []string{
	"TERM", "SHELL", "EDITOR", "VISUAL", "PAGER", "LESS",
	"HOME", "USER", "LOGNAME",
	"PS1", "PS2", "SHLVL", "PWD", "OLDPWD", "_",
	"TMPDIR", "TEMP", "TMP",
	"NIX_BUILD_TOP", "NIX_BUILD_CORES", "NIX_LOG_FD",
}

// execFunc runs argv and returns its standard output.
type execFunc func(ctx context.Context, argv []string) ([]byte, error)

var _ ports.BuildRuntime = (*Runtime)(nil)

// Runtime implements ports.BuildRuntime with the nix CLI.
type Runtime struct {
	cacheDir string
	exec     execFunc

	realizeGroup singleflight.Group
	envGroup     singleflight.Group
}

// NewRuntime creates a Runtime that caches shell environments in cacheDir.
func NewRuntime(cacheDir string) *Runtime {
	return newRuntime(cacheDir, runNix)
}

func newRuntime(cacheDir string, fn execFunc) *Runtime {
	return &Runtime{cacheDir: filepath.Clean(cacheDir), exec: fn}
}

// Realize builds drv and maps each declared output to its path in the Nix store.
// Concurrent calls for the same address share one build.
func (r *Runtime) Realize(ctx context.Context, drv *domain.Derivation) (domain.Realization, error) {
	v, err, _ := r.realizeGroup.Do(drv.Address, func() (any, error) {
		return r.realize(ctx, drv)
	})
	if err != nil {
		return domain.Realization{}, err
	}
	return v.(domain.Realization), nil
}

func (r *Runtime) realize(ctx context.Context, drv *domain.Derivation) (domain.Realization, error) {
	fail := func(err error) error {
		return zerr.With(zerr.With(err, "address", drv.Address), "system", string(drv.System))
	}

	tmpPath, cleanup, err := createNixTempFile(generateDerivationExpr(drv))
	if err != nil {
		return domain.Realization{}, fail(domain.Annotate(domain.ErrRealizeFailed, err.Error()))
	}
	defer cleanup()

	output, err := r.exec(ctx, []string{"nix", "build", "--json", "--no-link", "--file", tmpPath})
	if err != nil {
		return domain.Realization{}, fail(domain.Annotate(domain.ErrRealizeFailed, err.Error()))
	}

	var results buildResults
	if err := json.Unmarshal(output, &results); err != nil {
		return domain.Realization{}, fail(domain.Annotate(domain.ErrRealizeFailed,
			"failed to parse nix build JSON output: "+err.Error()))
	}
	if len(results) == 0 || results[0].Outputs["out"] == "" {
		return domain.Realization{}, fail(domain.Annotate(domain.ErrRealizeFailed, "no 'out' output in build results"))
	}

	root := results[0].Outputs["out"]
	outputs := make(map[string]string, len(drv.Outputs))
	for _, o := range drv.Outputs {
		outputs[o.Name] = filepath.Join(root, filepath.FromSlash(o.Path))
	}
	return domain.Realization{Address: drv.Address, Root: root, Outputs: outputs}, nil
}

// Environment returns the variables a process inside shell needs, as sorted "KEY=VALUE" strings.
// Environments are cached by the shell's key.
func (r *Runtime) Environment(ctx context.Context, shell *domain.DevShell) ([]string, error) {
	key, err := shell.Key()
	if err != nil {
		return nil, err
	}

	v, err, _ := r.envGroup.Do(key, func() (any, error) {
		cachePath := filepath.Join(r.cacheDir, cacheFileName(key))
		if env, err := loadEnvFromCache(cachePath); err == nil {
			return env, nil
		}

		tmpPath, cleanup, err := createNixTempFile(generateShellExpr(shell))
		if err != nil {
			return nil, domain.Annotate(domain.ErrEnvironmentFailed, err.Error(), "system", string(shell.System))
		}
		defer cleanup()

		output, err := r.exec(ctx, []string{"nix", "print-dev-env", "--json", "--file", tmpPath})
		if err != nil {
			return nil, domain.Annotate(domain.ErrEnvironmentFailed, err.Error(), "system", string(shell.System))
		}

		env, err := parseDevEnv(output)
		if err != nil {
			return nil, domain.Annotate(domain.ErrEnvironmentFailed, err.Error(), "system", string(shell.System))
		}

		// A failed cache write only costs a rebuild next time.
		_ = saveEnvToCache(cachePath, env)
		return env, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]string)), nil
}

// cacheFileName turns a digest such as "blake3:abcd" into a file name.
func cacheFileName(key string) string {
	return strings.ReplaceAll(key, ":", "-") + ".json"
}

func runNix(ctx context.Context, argv []string) ([]byte, error) {
	//nolint:gosec // argv is built by this package
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, zerr.With(zerr.Wrap(err, msg), "command", strings.Join(argv[:2], " "))
	}
	return output, nil
}

// createNixTempFile creates a temporary file with the given Nix expression.
func createNixTempFile(expr string) (tmpPath string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "kiln-*.nix")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp nix file")
	}

	tmpPath = tmpFile.Name()
	cleanup = func() {
		_ = os.Remove(tmpPath)
	}

	if _, writeErr := tmpFile.WriteString(expr); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write nix expression")
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(closeErr, "failed to close temp nix file")
	}
	return tmpPath, cleanup, nil
}

func loadEnvFromCache(path string) ([]string, error) {
	//nolint:gosec // Path is constructed from trusted cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, domain.Annotate(domain.ErrNixCacheReadFailed, err.Error(), "path", path)
	}

	var env []string
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, domain.Annotate(domain.ErrNixCacheReadFailed, err.Error(), "path", path)
	}
	return env, nil
}

func saveEnvToCache(path string, env []string) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal environment")
	}
	if err := atomicWriteFile(path, data); err != nil {
		return domain.Annotate(domain.ErrNixCacheWriteFailed, err.Error(), "path", path)
	}
	return nil
}

// parseDevEnv extracts exported variables from `nix print-dev-env --json` output.
func parseDevEnv(data []byte) ([]string, error) {
	var output devEnvOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, zerr.Wrap(err, "failed to unmarshal nix output")
	}

	env := make([]string, 0, len(output.Variables))
	for key, variable := range output.Variables {
		if slices.Contains(excludedVars, key) {
			continue
		}

		var value string
		switch v := variable.Value.(type) {
		case string:
			value = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, part := range v {
				if s, ok := part.(string); ok {
					parts = append(parts, s)
				}
			}
			value = strings.Join(parts, ":")
		default:
			continue
		}
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	slices.Sort(env)
	return env, nil
}
