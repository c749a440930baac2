package devshell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/devshell"
)

const linux domain.System = "x86_64-linux"

var rust = domain.Toolchain{Name: "rust", Compiler: "rustc", Linker: "cc", Version: "1.78.0", Channel: "stable", System: linux}

func index() *domain.Index {
	return domain.NewIndex(linux,
		domain.Package{Name: "rust", Version: "1.78.0", Kind: domain.KindToolchain, Channel: "stable"},
		domain.Package{Name: "just", Version: "1.25.0", Kind: domain.KindTool},
		domain.Package{Name: "ripgrep", Version: "14.1.0", Kind: domain.KindTool},
	)
}

func toolNames(shell *domain.DevShell) []string {
	names := make([]string, len(shell.Tools))
	for i, p := range shell.Tools {
		names[i] = p.Name
	}
	return names
}

func TestAssemble_DuplicatesCollapse(t *testing.T) {
	shell, err := devshell.Assemble(index(), rust, domain.NewToolSet("ripgrep", "just", "ripgrep"))
	require.NoError(t, err)

	assert.Equal(t, []string{"just", "ripgrep"}, toolNames(shell))
	assert.Equal(t, linux, shell.System)
	assert.NotEmpty(t, shell.ID)
}

func TestAssemble_AlwaysIncludesToolchain(t *testing.T) {
	shell, err := devshell.Assemble(index(), rust, domain.NewToolSet("rust", "just"))
	require.NoError(t, err)

	pkgs := shell.Packages()
	require.Len(t, pkgs, 2)
	assert.Equal(t, "rust", pkgs[0].Name)
	assert.Equal(t, domain.KindToolchain, pkgs[0].Kind)
	assert.Equal(t, "just", pkgs[1].Name)
}

func TestAssemble_ToolUnavailable(t *testing.T) {
	idx := domain.NewIndex(linux, domain.Package{Name: "mac-only", Systems: []domain.System{"aarch64-darwin"}})

	_, err := devshell.Assemble(idx, rust, domain.NewToolSet("mac-only", "missing"))
	require.ErrorIs(t, err, domain.ErrToolUnavailable)
	assert.Equal(t, "ToolUnavailable", domain.Kind(err))
	assert.Contains(t, err.Error(), "mac-only")
	assert.Contains(t, err.Error(), "missing")
}

func TestAssemble_SystemMismatch(t *testing.T) {
	darwinRust := rust
	darwinRust.System = "aarch64-darwin"

	_, err := devshell.Assemble(index(), darwinRust, nil)
	require.ErrorIs(t, err, domain.ErrSystemMismatch)
}

func TestAssemble_KeyIgnoresSession(t *testing.T) {
	a, err := devshell.Assemble(index(), rust, domain.NewToolSet("just", "ripgrep"))
	require.NoError(t, err)
	b, err := devshell.Assemble(index(), rust, domain.NewToolSet("ripgrep", "just"))
	require.NoError(t, err)

	require.NotEqual(t, a.ID, b.ID)

	ka, err := a.Key()
	require.NoError(t, err)
	kb, err := b.Key()
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}
