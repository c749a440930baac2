package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func toolchain() domain.Toolchain {
	return domain.Toolchain{
		Name:     "rust-stable",
		Compiler: "rustc",
		Linker:   "cc",
		Version:  "1.79.0",
		Channel:  "stable",
		System:   linux,
	}
}

func TestComputeAddress(t *testing.T) {
	address, err := domain.ComputeAddress("blake3:source", "blake3:lock", toolchain())
	require.NoError(t, err)
	assert.Len(t, address, 32)

	again, err := domain.ComputeAddress("blake3:source", "blake3:lock", toolchain())
	require.NoError(t, err)
	assert.Equal(t, address, again)

	linker := toolchain()
	linker.Linker = "ld64"
	darwinTC := toolchain()
	darwinTC.System = darwin

	variants := []struct {
		name   string
		source string
		lock   string
		tc     domain.Toolchain
	}{
		{name: "source", source: "blake3:other", lock: "blake3:lock", tc: toolchain()},
		{name: "lock", source: "blake3:source", lock: "blake3:other", tc: toolchain()},
		{name: "linker", source: "blake3:source", lock: "blake3:lock", tc: linker},
		{name: "system", source: "blake3:source", lock: "blake3:lock", tc: darwinTC},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got, err := domain.ComputeAddress(v.source, v.lock, v.tc)
			require.NoError(t, err)
			assert.NotEqual(t, address, got)
		})
	}
}

func TestDerivation_StorePath(t *testing.T) {
	drv := &domain.Derivation{Name: "zola", Version: "0.19.2", Address: "0c5b8vw40dy178xlpddw65q9gf1h2186"}
	assert.Equal(t, "/kiln/store/0c5b8vw40dy178xlpddw65q9gf1h2186-zola-0.19.2", drv.StorePath())

	drv.Version = ""
	assert.True(t, strings.HasSuffix(drv.StorePath(), "-zola"))
}

func TestDerivation_Output(t *testing.T) {
	drv := &domain.Derivation{Outputs: []domain.Output{
		{Name: "zola", Path: "bin/zola"},
		{Name: "zola-docs", Path: "bin/zola-docs"},
	}}

	out, ok := drv.Output("zola-docs")
	require.True(t, ok)
	assert.Equal(t, "bin/zola-docs", out.Path)

	_, ok = drv.Output("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"zola", "zola-docs"}, drv.OutputNames())
}

func TestToolchain_BuildCommand(t *testing.T) {
	tc := toolchain()
	assert.Equal(t, []string{"cargo", "build", "--release", "--offline"}, tc.BuildCommand())

	tc.Build = []string{"cargo", "build", "--release"}
	cmd := tc.BuildCommand()
	cmd[0] = "changed"
	assert.Equal(t, "cargo", tc.Build[0])
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.Channel
		wantErr bool
	}{
		{input: "stable", want: domain.Channel{Name: "stable"}},
		{input: "stable@1.78.0", want: domain.Channel{Name: "stable", Pin: "1.78.0"}},
		{input: "nightly-2024", want: domain.Channel{Name: "nightly-2024"}},
		{input: "stable@", wantErr: true},
		{input: "Stable", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseChannel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidChannel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}
