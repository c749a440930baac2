package shell

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		sysEnv   []string
		nixEnv   []string
		expected []string
	}{
		{
			name:     "System Only (Allowed)",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HOME=/home/test"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "USER=test"},
		},
		{
			name:     "System Only (Filtered)",
			sysEnv:   []string{"USER=test", "SSH_AUTH_SOCK=/tmp/ssh", "SECRET=key"},
			expected: []string{"USER=test"},
		},
		{
			name:     "System + Nix (No PATH)",
			sysEnv:   []string{"USER=test", "PATH=/bin"},
			nixEnv:   []string{"NIX_CC=gcc"},
			expected: []string{"NIX_CC=gcc", "PATH=/bin", "USER=test"},
		},
		{
			name:     "System + Nix (Prepend PATH)",
			sysEnv:   []string{"USER=test", "PATH=/bin"},
			nixEnv:   []string{"PATH=/nix/bin", "NIX_CC=gcc"},
			expected: []string{"NIX_CC=gcc", "PATH=/nix/bin" + string(os.PathListSeparator) + "/bin", "USER=test"},
		},
		{
			name:     "Nix PATH without system PATH",
			nixEnv:   []string{"PATH=/nix/bin"},
			expected: []string{"PATH=/nix/bin"},
		},
		{
			name:     "Malformed entries are skipped",
			nixEnv:   []string{"NOEQUALS", "A=1"},
			expected: []string{"A=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveEnvironment(filterSystemEnv(tt.sysEnv), tt.nixEnv)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	tool := dir + "/tool"
	assert.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o700))
	assert.NoError(t, os.WriteFile(dir+"/data", []byte("x"), 0o600))

	got, err := lookPath("tool", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	assert.NoError(t, err)
	assert.Equal(t, tool, got)

	_, err = lookPath("data", []string{"PATH=" + dir})
	assert.Error(t, err, "non executable files are skipped")

	_, err = lookPath("tool", nil)
	assert.Error(t, err)
}
