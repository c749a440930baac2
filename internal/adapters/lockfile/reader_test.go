package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/lockfile"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestRead_Cargo(t *testing.T) {
	lock, err := lockfile.NewReader().Read(filepath.Join("testdata", "Cargo.lock"))
	require.NoError(t, err)

	require.Len(t, lock.Entries, 3)
	require.NoError(t, lock.Validate())
	assert.True(t, lock.Has("toml"))
	assert.Equal(t, "sha256-n4bQgYhMfWWaL+qgxVrQFaO/TxsrC4Is0V1sFbDwCgg=", lock.Entries[0].Integrity.String())
	assert.True(t, lock.Entries[2].Integrity.IsZero())
}

func TestRead_NativeMatchesCargo(t *testing.T) {
	reader := lockfile.NewReader()

	cargo, err := reader.Read(filepath.Join("testdata", "Cargo.lock"))
	require.NoError(t, err)
	native, err := reader.Read(filepath.Join("testdata", "kiln.lock"))
	require.NoError(t, err)

	cd, err := cargo.Digest()
	require.NoError(t, err)
	nd, err := native.Digest()
	require.NoError(t, err)

	assert.Equal(t, cd, nd, "the same pins in either format share a digest")
}

func TestRead_EmptyPath(t *testing.T) {
	lock, err := lockfile.NewReader().Read("")
	require.NoError(t, err)
	assert.Empty(t, lock.Entries)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "Cargo.lock"),
			wantErr: domain.ErrLockFileNotFound,
		},
		{
			name:    "directory",
			path:    dir,
			wantErr: domain.ErrLockFileReadFailed,
		},
		{
			name:    "broken toml",
			path:    write("broken.lock", "[[package]\nname ="),
			wantErr: domain.ErrLockFileInvalid,
		},
		{
			name:    "bad checksum",
			path:    write("checksum.lock", "[[package]]\nname = \"serde\"\nversion = \"1.0.0\"\nchecksum = \"nope\"\n"),
			wantErr: domain.ErrLockFileInvalid,
		},
		{
			name:    "unsupported native version",
			path:    write("kiln.lock", `{"version": 2, "packages": []}`),
			wantErr: domain.ErrLockFileInvalid,
		},
		{
			name:    "broken json",
			path:    write("pins.json", `{"version": 1, "packages": [`),
			wantErr: domain.ErrLockFileInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lockfile.NewReader().Read(tt.path)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
