// Package devshell assembles interactive tool environments.
package devshell

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
)

// Assemble builds a dev shell from the toolchain and the requested tools. Every tool must be
// defined in index and available on its system; all missing tools are reported together.
func Assemble(index *domain.Index, toolchain domain.Toolchain, tools domain.ToolSet) (*domain.DevShell, error) {
	system := index.System()
	if toolchain.System != system {
		return nil, domain.Annotate(domain.ErrSystemMismatch,
			fmt.Sprintf("toolchain for %s used in a shell for %s", toolchain.System, system),
			"toolchain", toolchain.System, "system", system)
	}

	var (
		pkgs []domain.Package
		errs []error
	)
	for _, ref := range tools.Sorted() {
		p, ok := index.Get(string(ref))
		if !ok || !p.AvailableOn(system) {
			errs = append(errs, domain.Annotate(domain.ErrToolUnavailable,
				fmt.Sprintf("%s is not available on %s", ref, system),
				"tool", string(ref), "system", system))
			continue
		}
		if p.Name == toolchain.Name {
			continue
		}
		pkgs = append(pkgs, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &domain.DevShell{
		ID:        uuid.NewString(),
		System:    system,
		Toolchain: toolchain,
		Tools:     pkgs,
	}, nil
}
