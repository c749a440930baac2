package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

const (
	linux  domain.System = "x86_64-linux"
	darwin domain.System = "aarch64-darwin"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	scanner *mocks.MockSourceScanner
	locks   *mocks.MockLockReader
	catalog *mocks.MockToolCatalog
	store   *mocks.MockDerivationStore
	p       *pipeline.Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		scanner: mocks.NewMockSourceScanner(ctrl),
		locks:   mocks.NewMockLockReader(ctrl),
		catalog: mocks.NewMockToolCatalog(ctrl),
		store:   mocks.NewMockDerivationStore(ctrl),
	}
	f.p = pipeline.New(f.scanner, f.locks, f.catalog, f.store, telemetry.NewNoop()).WithLimit(2)
	return f
}

func (f *fixture) emptyStore() {
	f.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (f *fixture) sources(t *testing.T, entries ...domain.LockEntry) {
	t.Helper()
	f.scanner.EXPECT().Scan(gomock.Any(), "/src/zola", "/src/zola/Cargo.toml").Return(domain.SourceTree{
		Root:   "/src/zola",
		Digest: "sha256:0c2kv1qy8a5c1x8x1cqlv0k4mqnwc3n4xdc4mnd3wbm0idm1rh6m",
		Files:  3,
		Manifest: domain.Manifest{
			Name:         "zola",
			Version:      "0.19.2",
			Binaries:     []string{"zola"},
			Dependencies: []string{"serde"},
		},
	}, nil).Times(1)
	f.locks.EXPECT().Read("/src/zola/Cargo.lock").Return(domain.LockFile{
		Path:    "/src/zola/Cargo.lock",
		Entries: entries,
	}, nil).Times(1)
}

func lockEntry(t *testing.T, name, version string) domain.LockEntry {
	t.Helper()
	sum, err := domain.ParseIntegrity("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")
	require.NoError(t, err)
	return domain.LockEntry{
		Name:      name,
		Version:   version,
		Source:    "registry+https://github.com/rust-lang/crates.io-index",
		Integrity: sum,
	}
}

func project(systems ...domain.System) *domain.Project {
	return &domain.Project{
		Dir:          "/src/zola",
		Systems:      systems,
		Channel:      domain.Channel{Name: "stable"},
		SourceRoot:   "/src/zola",
		ManifestPath: "/src/zola/Cargo.toml",
		LockPath:     "/src/zola/Cargo.lock",
		Packages: []domain.Package{
			{Name: "rustc", Version: "1.78.0", Kind: domain.KindToolchain, Channel: "stable", Compiler: "rustc", Linker: "cc"},
			{Name: "just", Version: "1.25.0", Kind: domain.KindTool},
		},
		ShellTools: domain.NewToolSet("just"),
	}
}

func TestEvaluate_EverySystem(t *testing.T) {
	f := newFixture(t)
	f.emptyStore()
	f.sources(t, lockEntry(t, "serde", "1.0.203"))

	results, err := f.p.Evaluate(context.Background(), project(linux, darwin), pipeline.Request{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, system := range []domain.System{linux, darwin} {
		res := results[i]
		require.False(t, res.Failed(), "unexpected failure: %v", res.Err())
		assert.Equal(t, system, res.System)
		assert.Equal(t, system, res.Toolchain.System)
		assert.Equal(t, "1.78.0", res.Toolchain.Version)
		assert.Equal(t, system, res.Derivation.System)
		assert.Equal(t, "bin/zola", res.App.Program)
		assert.Equal(t, system, res.Shell.System)
		assert.False(t, res.Cached)
	}
	assert.NotEqual(t, results[0].Derivation.Address, results[1].Derivation.Address)
}

func TestEvaluate_ConflictingLockOnlyFailsPackageBranch(t *testing.T) {
	f := newFixture(t)
	f.sources(t, lockEntry(t, "serde", "1.0.203"), lockEntry(t, "serde", "1.0.100"))

	results, err := f.p.Evaluate(context.Background(), project(linux, darwin), pipeline.Request{})
	require.NoError(t, err)

	for _, res := range results {
		require.ErrorIs(t, res.Errors[domain.StagePlan], domain.ErrLockFileInvalid)
		assert.Nil(t, res.Derivation)
		assert.Nil(t, res.App)
		assert.NotContains(t, res.Errors, domain.StageWrap)
		assert.NotContains(t, res.Errors, domain.StageAssemble)
		assert.NotNil(t, res.Shell)
	}
}

func TestEvaluate_SystemsAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.emptyStore()
	f.sources(t, lockEntry(t, "serde", "1.0.203"))

	p := project(linux, darwin)
	p.Packages[0].Systems = []domain.System{linux}

	results, err := f.p.Evaluate(context.Background(), p, pipeline.Request{})
	require.NoError(t, err)

	assert.False(t, results[0].Failed())
	assert.NotNil(t, results[0].Derivation)

	require.ErrorIs(t, results[1].Errors[domain.StageResolve], domain.ErrToolchainNotFound)
	assert.Nil(t, results[1].Derivation)
	assert.Nil(t, results[1].Shell)
	assert.Equal(t, "ToolchainNotFound", domain.Kind(results[1].Err()))
}

func TestEvaluate_ShellFailureDoesNotAffectPackage(t *testing.T) {
	f := newFixture(t)
	f.emptyStore()
	f.sources(t, lockEntry(t, "serde", "1.0.203"))

	p := project(linux)
	p.ShellTools = domain.NewToolSet("just", "missing")

	results, err := f.p.Evaluate(context.Background(), p, pipeline.Request{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.ErrorIs(t, res.Errors[domain.StageAssemble], domain.ErrToolUnavailable)
	assert.Nil(t, res.Shell)
	assert.NotNil(t, res.Derivation)
	assert.NotNil(t, res.App)
	assert.NoError(t, res.PackageErr())
}

func TestEvaluate_CachedDerivation(t *testing.T) {
	f := newFixture(t)
	f.sources(t, lockEntry(t, "serde", "1.0.203"))
	f.store.EXPECT().Get("/src/zola", gomock.Any()).DoAndReturn(func(_, address string) (*domain.Derivation, error) {
		return &domain.Derivation{Address: address, System: linux}, nil
	})

	results, err := f.p.Evaluate(context.Background(), project(linux), pipeline.Request{Branches: pipeline.BranchPackage})
	require.NoError(t, err)

	res := results[0]
	assert.True(t, res.Cached)
	assert.Equal(t, "zola", res.Derivation.Name)
	assert.Nil(t, res.Shell)
}

func TestEvaluate_StoreFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.sources(t, lockEntry(t, "serde", "1.0.203"))
	f.store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, domain.ErrStoreCorrupt)
	f.store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(domain.ErrStoreWriteFailed)

	results, err := f.p.Evaluate(context.Background(), project(linux), pipeline.Request{Branches: pipeline.BranchPackage})
	require.NoError(t, err)
	assert.False(t, results[0].Failed())
	assert.False(t, results[0].Cached)
}

func TestEvaluate_CatalogTools(t *testing.T) {
	f := newFixture(t)

	p := project(linux, darwin)
	p.Tools = []domain.ToolSpec{
		{Alias: "rg", Name: "ripgrep", Version: "14.1.0"},
		{Name: "typos", Version: "1.22.0"},
	}
	p.ShellTools = domain.NewToolSet("rg", "typos")

	f.catalog.EXPECT().Resolve(gomock.Any(), p.Tools[0]).Return(map[domain.System]domain.Package{
		linux:  {Name: "ripgrep", Version: "14.1.0", Kind: domain.KindTool, Flake: "github:NixOS/nixpkgs/abc", Attr: "ripgrep"},
		darwin: {Name: "ripgrep", Version: "14.1.0", Kind: domain.KindTool, Flake: "github:NixOS/nixpkgs/abc", Attr: "ripgrep"},
	}, nil)
	catalogErr := domain.Annotate(domain.ErrNixPackageNotFound, "typos@1.22.0")
	f.catalog.EXPECT().Resolve(gomock.Any(), p.Tools[1]).Return(nil, catalogErr)

	results, err := f.p.Evaluate(context.Background(), p, pipeline.Request{Branches: pipeline.BranchShell})
	require.NoError(t, err)

	for _, res := range results {
		err := res.Errors[domain.StageAssemble]
		require.ErrorIs(t, err, domain.ErrToolUnavailable)
		require.ErrorIs(t, err, domain.ErrNixPackageNotFound)
		assert.Contains(t, err.Error(), "typos")
		assert.NotContains(t, err.Error(), "rg is not available")
		assert.Nil(t, res.Derivation)
	}

	p.ShellTools = domain.NewToolSet("rg")
	f.catalog.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(map[domain.System]domain.Package{
		linux: {Name: "ripgrep", Version: "14.1.0", Kind: domain.KindTool},
	}, nil).Times(2)

	results, err = f.p.Evaluate(context.Background(), p, pipeline.Request{Systems: []domain.System{linux}, Branches: pipeline.BranchShell})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Shell)
	require.Len(t, results[0].Shell.Tools, 1)
	assert.Equal(t, "rg", results[0].Shell.Tools[0].Name)
}

func TestEvaluate_UnknownSystem(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.Evaluate(context.Background(), project(linux), pipeline.Request{Systems: []domain.System{darwin}})
	require.ErrorIs(t, err, domain.ErrSystemNotEnumerated)
}

func TestEvaluate_EmptySourceTreeWithoutLock(t *testing.T) {
	f := newFixture(t)
	f.emptyStore()
	f.scanner.EXPECT().Scan(gomock.Any(), "/src/zola", "/src/zola/Cargo.toml").
		Return(domain.SourceTree{Root: "/src/zola", Digest: "sha256:empty"}, nil)
	f.locks.EXPECT().Read("/src/zola/Cargo.lock").
		Return(domain.LockFile{}, domain.Annotate(domain.ErrLockFileNotFound, "/src/zola/Cargo.lock"))

	results, err := f.p.Evaluate(context.Background(), project(linux), pipeline.Request{Branches: pipeline.BranchPackage})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.NotContains(t, res.Errors, domain.StagePlan)
	require.NotNil(t, res.Derivation)
	assert.Empty(t, res.Derivation.Outputs)
	require.ErrorIs(t, res.Errors[domain.StageWrap], domain.ErrNoOutputArtifact)
	assert.Equal(t, "NoOutputArtifact", domain.Kind(res.Err()))
}

func TestEvaluate_MissingLockWithSources(t *testing.T) {
	f := newFixture(t)
	f.scanner.EXPECT().Scan(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.SourceTree{Root: "/src/zola", Digest: "sha256:abc", Files: 2}, nil)
	f.locks.EXPECT().Read("/src/zola/Cargo.lock").
		Return(domain.LockFile{}, domain.Annotate(domain.ErrLockFileNotFound, "/src/zola/Cargo.lock"))

	results, err := f.p.Evaluate(context.Background(), project(linux), pipeline.Request{Branches: pipeline.BranchPackage})
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Errors[domain.StagePlan], domain.ErrLockFileNotFound)
	assert.Equal(t, "LockFileNotFound", domain.Kind(results[0].Err()))
}

func TestEvaluate_NoSystems(t *testing.T) {
	f := newFixture(t)

	p := project()
	p.Systems = []domain.System{}

	for _, req := range []pipeline.Request{{}, {Systems: []domain.System{linux}}} {
		results, err := f.p.Evaluate(context.Background(), p, req)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.p.Evaluate(ctx, project(linux, darwin), pipeline.Request{Branches: pipeline.BranchShell})
	require.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, results)
}
