// Package toolchain selects the toolchain a system builds with.
package toolchain

import (
	"fmt"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"golang.org/x/mod/semver"
)

// Resolve picks the toolchain for channel from index. A pinned channel needs an exact
// version match; otherwise the highest version wins, with ties going to the first name.
func Resolve(index *domain.Index, channel domain.Channel, system domain.System) (domain.Toolchain, error) {
	if index.System() != system {
		return domain.Toolchain{}, domain.Annotate(domain.ErrSystemMismatch,
			fmt.Sprintf("index for %s cannot resolve a toolchain for %s", index.System(), system),
			"index", index.System(), "system", system)
	}

	var (
		best  domain.Package
		found bool
	)
	for _, p := range index.All() {
		if p.Kind != domain.KindToolchain || p.Channel != channel.Name || !p.AvailableOn(system) {
			continue
		}
		if channel.Pinned() {
			if !sameVersion(p.Version, channel.Pin) {
				continue
			}
			best, found = p, true
			break
		}
		if !found || compareVersions(p.Version, best.Version) > 0 {
			best, found = p, true
		}
	}

	if !found {
		return domain.Toolchain{}, domain.Annotate(domain.ErrToolchainNotFound,
			fmt.Sprintf("no toolchain on channel %s for %s", channel, system),
			"channel", channel.String(), "system", system)
	}
	return domain.ToolchainFromPackage(best, system), nil
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// compareVersions orders semantic versions. Versions that are not valid semver sort below
// every valid one.
func compareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func sameVersion(a, b string) bool {
	if a == b {
		return true
	}
	ca, cb := canonical(a), canonical(b)
	return semver.IsValid(ca) && semver.IsValid(cb) && semver.Compare(ca, cb) == 0
}
