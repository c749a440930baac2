package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestParseSystem(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "linux x86", input: "x86_64-linux"},
		{name: "darwin arm", input: "aarch64-darwin"},
		{name: "missing os", input: "x86_64", wantErr: true},
		{name: "unknown arch", input: "sparc-linux", wantErr: true},
		{name: "unknown os", input: "x86_64-windows", wantErr: true},
		{name: "extra component", input: "x86_64-unknown-linux", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseSystem(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidSystem)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.System(tt.input), got)
		})
	}
}

func TestSystem_ArchAndOS(t *testing.T) {
	s := domain.System("aarch64-darwin")
	assert.Equal(t, "aarch64", s.Arch())
	assert.Equal(t, "darwin", s.OS())
}

func TestEnumerate(t *testing.T) {
	systems := []domain.System{"x86_64-linux", "aarch64-darwin", "x86_64-linux"}
	seq := domain.Enumerate(systems)

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, []domain.System{"x86_64-linux", "aarch64-darwin"}, first)
	assert.Equal(t, first, second, "sequence must be restartable")
}

func TestEnumerate_Empty(t *testing.T) {
	assert.Empty(t, slices.Collect(domain.Enumerate(nil)))
}

func TestEnumerate_StopsEarly(t *testing.T) {
	var got []domain.System
	for s := range domain.Enumerate(domain.DefaultSystems) {
		got = append(got, s)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, domain.DefaultSystems[:2], got)
}

func TestCurrentSystem_IsValid(t *testing.T) {
	_, err := domain.ParseSystem(string(domain.CurrentSystem()))
	assert.NoError(t, err)
}
