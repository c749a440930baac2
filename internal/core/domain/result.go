package domain

import "errors"

// Stage names a step of the per-system pipeline.
type Stage string

const (
	StageCompose  Stage = "compose"
	StageResolve  Stage = "resolve"
	StagePlan     Stage = "plan"
	StageWrap     Stage = "wrap"
	StageAssemble Stage = "assemble"
	// StageRealize is recorded by the build command after the pipeline ran.
	StageRealize Stage = "realize"
)

// StageOrder lists the stages in the order they run.
var StageOrder = []Stage{StageCompose, StageResolve, StagePlan, StageWrap, StageAssemble, StageRealize}

// SystemResult is the outcome of evaluating one system.
type SystemResult struct {
	System     System
	Index      *Index
	Toolchain  *Toolchain
	Derivation *Derivation
	App        *AppRef
	Shell      *DevShell
	// Cached is set when the derivation was loaded from the store.
	Cached bool
	// Errors holds the failure of each stage that failed.
	Errors map[Stage]error
}

// Failed reports whether any stage failed.
func (r *SystemResult) Failed() bool {
	return len(r.Errors) > 0
}

// Err joins every stage failure, in stage order.
func (r *SystemResult) Err() error {
	var errs []error
	for _, s := range StageOrder {
		if err, ok := r.Errors[s]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PackageErr returns the first failure on the package path (compose, resolve, plan).
func (r *SystemResult) PackageErr() error {
	for _, s := range []Stage{StageCompose, StageResolve, StagePlan} {
		if err, ok := r.Errors[s]; ok {
			return err
		}
	}
	return nil
}

// ShellErr returns the first failure on the shell path (compose, resolve, assemble).
func (r *SystemResult) ShellErr() error {
	for _, s := range []Stage{StageCompose, StageResolve, StageAssemble} {
		if err, ok := r.Errors[s]; ok {
			return err
		}
	}
	return nil
}
