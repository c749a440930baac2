package nix

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// NewRuntimeWithExec creates a Runtime that runs commands through fn.
func NewRuntimeWithExec(cacheDir string, fn func(ctx context.Context, argv []string) ([]byte, error)) *Runtime {
	return newRuntime(cacheDir, fn)
}

// SetBaseURL points the catalog at another NixHub endpoint.
func (c *Catalog) SetBaseURL(u string) {
	c.baseURL = u
}

// GenerateDerivationExpr exports generateDerivationExpr for testing.
func GenerateDerivationExpr(drv *domain.Derivation) string {
	return generateDerivationExpr(drv)
}

// GenerateShellExpr exports generateShellExpr for testing.
func GenerateShellExpr(shell *domain.DevShell) string {
	return generateShellExpr(shell)
}

// ParseDevEnv exports parseDevEnv for testing.
func ParseDevEnv(data []byte) ([]string, error) {
	return parseDevEnv(data)
}
