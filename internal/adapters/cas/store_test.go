package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/core/domain"
)

const address = "0c2kv1qy8a5c1x8x1cqlv0k4mqnwc3n4"

func derivation() *domain.Derivation {
	return &domain.Derivation{
		Name:    "zola",
		Version: "0.19.2",
		System:  "x86_64-linux",
		Toolchain: domain.Toolchain{
			Name:     "rust",
			Compiler: "rustc",
			Linker:   "cc",
			Version:  "1.78.0",
			Channel:  "stable",
			System:   "x86_64-linux",
			Build:    []string{"cargo", "build", "--release"},
		},
		SourceRoot:   "/src/zola",
		SourceDigest: "sha256:abc",
		LockPath:     "/src/zola/Cargo.lock",
		LockDigest:   "blake3:def",
		Steps: []domain.Step{
			{Name: "unpack", Command: []string{"cp", "-R", "$src/.", "."}},
			{Name: "build", Command: []string{"cargo", "build", "--release"}},
		},
		Outputs: []domain.Output{{Name: "zola", Path: "bin/zola"}},
		Address: address,
	}
}

func TestStore_PutAndGet(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()
	drv := derivation()

	require.NoError(t, store.Put(root, drv))

	got, err := store.Get(root, address)
	require.NoError(t, err)
	assert.Equal(t, drv, got)

	_, err = os.Stat(filepath.Join(root, ".kiln", "store", address+".drv.zst"))
	assert.NoError(t, err)
}

func TestStore_GetMissing(t *testing.T) {
	store := cas.NewStore()

	drv, err := store.Get(t.TempDir(), address)
	require.NoError(t, err)
	assert.Nil(t, drv)

	r, err := store.GetRealization(t.TempDir(), address)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestStore_Corrupt(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".kiln", "store")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, address+".drv.zst"), []byte("not zstd"), 0o600))

	_, err := cas.NewStore().Get(root, address)
	require.ErrorIs(t, err, domain.ErrStoreCorrupt)
}

func TestStore_AddressMismatch(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()
	require.NoError(t, store.Put(root, derivation()))

	other := "1c2kv1qy8a5c1x8x1cqlv0k4mqnwc3n4"
	src := filepath.Join(root, ".kiln", "store", address+".drv.zst")
	require.NoError(t, os.Rename(src, filepath.Join(root, ".kiln", "store", other+".drv.zst")))

	_, err := store.Get(root, other)
	require.ErrorIs(t, err, domain.ErrStoreCorrupt)
}

func TestStore_RejectsInvalidAddress(t *testing.T) {
	store := cas.NewStore()

	_, err := store.Get(t.TempDir(), "../../etc/passwd")
	require.ErrorIs(t, err, domain.ErrStoreCorrupt)
}

func TestStore_Realization(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()
	r := domain.Realization{
		Address: address,
		Root:    "/nix/store/abc-zola-0.19.2",
		Outputs: map[string]string{"zola": "/nix/store/abc-zola-0.19.2/bin/zola"},
	}

	require.NoError(t, store.PutRealization(root, r))
	got, err := store.GetRealization(root, address)
	require.NoError(t, err)
	assert.Equal(t, &r, got)

	r.Root = "/nix/store/def-zola-0.19.2"
	require.NoError(t, store.PutRealization(root, r))
	got, err = store.GetRealization(root, address)
	require.NoError(t, err)
	assert.Equal(t, "/nix/store/def-zola-0.19.2", got.Root)
}
