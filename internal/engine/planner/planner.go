// Package planner turns a source tree, a lock file and a toolchain into a derivation.
package planner

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// ArtifactDir is where the build step leaves executables, relative to the build directory.
const ArtifactDir = "target/release"

// Placeholders the build runtime substitutes when it executes steps.
const (
	SourceVar = "$src"
	LockVar   = "$lock"
	OutVar    = "$out"
)

// Plan builds the derivation for source, lock and toolchain. It executes nothing.
//
// Every dependency the manifest declares must be locked. The address depends only on the
// source digest, the lock digest and the toolchain identity.
func Plan(source domain.SourceTree, lock domain.LockFile, toolchain domain.Toolchain) (*domain.Derivation, error) {
	if err := lock.Validate(); err != nil {
		return nil, zerr.With(err, "lockfile", lock.Path)
	}
	for _, dep := range source.Manifest.Dependencies {
		if !lock.Has(dep) {
			return nil, domain.Annotate(domain.ErrLockFileInvalid,
				fmt.Sprintf("dependency %s is declared by the manifest but not locked", dep),
				"dependency", dep, "lockfile", lock.Path)
		}
	}

	lockDigest, err := lock.Digest()
	if err != nil {
		return nil, err
	}
	address, err := domain.ComputeAddress(source.Digest, lockDigest, toolchain)
	if err != nil {
		return nil, err
	}

	name, version := source.Manifest.Name, source.Manifest.Version
	if name == "" {
		name = filepath.Base(source.Root)
	}

	var bins []string
	if !source.Empty() {
		bins = slices.Clone(source.Manifest.Binaries)
		slices.Sort(bins)
		bins = slices.Compact(bins)
	}

	outputs := make([]domain.Output, 0, len(bins))
	for _, bin := range bins {
		outputs = append(outputs, domain.Output{Name: bin, Path: path.Join("bin", bin)})
	}

	return &domain.Derivation{
		Name:         name,
		Version:      version,
		System:       toolchain.System,
		Toolchain:    toolchain,
		SourceRoot:   source.Root,
		SourceDigest: source.Digest,
		LockPath:     lock.Path,
		LockDigest:   lockDigest,
		Steps:        steps(lock, toolchain, outputs),
		Outputs:      outputs,
		Address:      address,
	}, nil
}

func steps(lock domain.LockFile, toolchain domain.Toolchain, outputs []domain.Output) []domain.Step {
	out := []domain.Step{
		{Name: "unpack", Command: []string{"cp", "-R", "--no-preserve=mode", SourceVar + "/.", "."}},
	}
	if lock.Path != "" {
		out = append(out, domain.Step{
			Name:    "vendor",
			Command: []string{"cp", "--no-preserve=mode", LockVar, path.Base(filepath.ToSlash(lock.Path))},
		})
	}
	out = append(out, domain.Step{Name: "build", Command: toolchain.BuildCommand()})
	for _, o := range outputs {
		out = append(out, domain.Step{
			Name:    "install " + o.Name,
			Command: []string{"install", "-Dm755", path.Join(ArtifactDir, o.Name), path.Join(OutVar, o.Path)},
		})
	}
	return out
}

// Wrap returns a reference to the named output of drv.
func Wrap(drv *domain.Derivation, outputName string) (domain.AppRef, error) {
	if len(drv.Outputs) == 0 {
		return domain.AppRef{}, domain.Annotate(domain.ErrNoOutputArtifact,
			fmt.Sprintf("%s declares no outputs", drv.Name),
			"derivation", drv.Address)
	}
	out, ok := drv.Output(outputName)
	if !ok {
		return domain.AppRef{}, domain.Annotate(domain.ErrOutputNotFound,
			fmt.Sprintf("%s has no output %q", drv.Name, outputName),
			"derivation", drv.Address, "output", outputName, "available", drv.OutputNames())
	}
	return domain.AppRef{
		Address: drv.Address,
		System:  drv.System,
		Output:  out.Name,
		Program: out.Path,
	}, nil
}

// DefaultOutput picks the output an app points at when none is configured: the output named
// after the derivation, or its only output.
func DefaultOutput(drv *domain.Derivation) string {
	if _, ok := drv.Output(drv.Name); ok {
		return drv.Name
	}
	if len(drv.Outputs) == 1 {
		return drv.Outputs[0].Name
	}
	return drv.Name
}
