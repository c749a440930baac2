// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	// ShellMarkerEnv is set inside shells started by kiln.
	ShellMarkerEnv = "IN_KILN_SHELL"
	// ShellIDEnv carries the session ID of the dev shell.
	ShellIDEnv = "KILN_SHELL_ID"

	defaultShell = "/bin/sh"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	pipeline     *pipeline.Pipeline
	store        ports.DerivationStore
	runtime      ports.BuildRuntime
	runner       ports.ProcessRunner
	scanner      ports.SourceScanner
	watcher      ports.Watcher
	logger       ports.Logger

	stdout io.Writer
	system domain.System
	cwd    string
	getenv func(string) string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	pipe *pipeline.Pipeline,
	store ports.DerivationStore,
	rt ports.BuildRuntime,
	runner ports.ProcessRunner,
	scanner ports.SourceScanner,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		pipeline:     pipe,
		store:        store,
		runtime:      rt,
		runner:       runner,
		scanner:      scanner,
		watcher:      watcher,
		logger:       log,
		stdout:       os.Stdout,
		system:       domain.CurrentSystem(),
		cwd:          ".",
		getenv:       os.Getenv,
	}
}

// WithOutput sets where reports are written.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithSystem overrides the system treated as the current one.
func (a *App) WithSystem(system domain.System) *App {
	a.system = system
	return a
}

// WithDir sets the directory kiln.yaml is searched from.
func (a *App) WithDir(dir string) *App {
	a.cwd = dir
	return a
}

// WithGetenv replaces the environment lookup used to pick the user's shell.
func (a *App) WithGetenv(getenv func(string) string) *App {
	a.getenv = getenv
	return a
}

// EvaluationError reports that at least one system failed. The per-system failures were
// already written to the report.
type EvaluationError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%d of %d systems failed", e.Failed, e.Total)
}

// Unwrap exposes ErrEvaluationFailed and every system failure to errors.Is.
func (e *EvaluationError) Unwrap() []error {
	return append([]error{domain.ErrEvaluationFailed}, e.Errs...)
}

func (a *App) load() (*domain.Project, error) {
	project, err := a.configLoader.Load(a.cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return project, nil
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Systems to build. Empty means the current system.
	Systems []domain.System
	// All builds every project system.
	All bool
	// DryRun plans without realizing.
	DryRun bool
	JSON   bool
}

// Build plans the package for the selected systems and realizes every derivation.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	req := pipeline.Request{Branches: pipeline.BranchPackage}
	switch {
	case opts.All:
	case len(opts.Systems) > 0:
		req.Systems = opts.Systems
	default:
		req.Systems = []domain.System{a.system}
	}

	results, err := a.pipeline.Evaluate(ctx, project, req)
	if err != nil {
		return err
	}

	reports := make([]systemReport, len(results))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range results {
		res := &results[i]
		if opts.DryRun || res.PackageErr() != nil {
			reports[i] = newSystemReport(res)
			continue
		}
		g.Go(func() error {
			realization, reused, err := a.realize(ctx, project.Dir, res.Derivation)
			if err != nil {
				res.Errors[domain.StageRealize] = err
			}
			reports[i] = newSystemReport(res)
			if err == nil {
				reports[i].Realization = &realization
				reports[i].Reused = reused
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.writeReports(reports, opts.JSON); err != nil {
		return err
	}
	return failures(results, func(res *domain.SystemResult) error {
		if err := res.PackageErr(); err != nil {
			return err
		}
		return res.Errors[domain.StageRealize]
	})
}

// realize materializes drv, reusing a recorded realization whose outputs still exist.
// The second result reports whether it was reused.
func (a *App) realize(ctx context.Context, root string, drv *domain.Derivation) (domain.Realization, bool, error) {
	recorded, err := a.store.GetRealization(root, drv.Address)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("ignoring realization record for %s: %v", drv.Address, err))
	}
	if recorded != nil && materialized(*recorded) {
		return *recorded, true, nil
	}

	realization, err := a.runtime.Realize(ctx, drv)
	if err != nil {
		return domain.Realization{}, false, zerr.With(err, "system", string(drv.System))
	}
	if err := a.store.PutRealization(root, realization); err != nil {
		a.logger.Warn(zerr.Wrap(err, "failed to record realization").Error())
	}
	return realization, false, nil
}

func materialized(r domain.Realization) bool {
	if r.Root == "" {
		return false
	}
	if _, err := os.Stat(r.Root); err != nil {
		return false
	}
	for _, path := range r.Outputs {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// failures returns an EvaluationError when failed reports an error for any result.
func failures(results []domain.SystemResult, failed func(*domain.SystemResult) error) error {
	var errs []error
	for i := range results {
		if err := failed(&results[i]); err != nil {
			errs = append(errs, zerr.With(err, "system", string(results[i].System)))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &EvaluationError{Failed: len(errs), Total: len(results), Errs: errs}
}

// Run builds the current system's app and executes it with args.
func (a *App) Run(ctx context.Context, args []string) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	res, err := a.evaluateCurrent(ctx, project, pipeline.BranchPackage)
	if err != nil {
		return err
	}
	if err := res.PackageErr(); err != nil {
		return zerr.With(err, "system", string(res.System))
	}
	if err := res.Errors[domain.StageWrap]; err != nil {
		return zerr.With(err, "system", string(res.System))
	}

	realization, _, err := a.realize(ctx, project.Dir, res.Derivation)
	if err != nil {
		return err
	}
	return a.runner.Run(ctx, res.App.Command(realization.Root, args...), nil)
}

// Shell starts the user's shell with the current system's dev shell tools on PATH.
func (a *App) Shell(ctx context.Context) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	res, err := a.evaluateCurrent(ctx, project, pipeline.BranchShell)
	if err != nil {
		return err
	}
	if err := res.ShellErr(); err != nil {
		return zerr.With(err, "system", string(res.System))
	}

	env, err := a.runtime.Environment(ctx, res.Shell)
	if err != nil {
		return err
	}
	env = append(env, ShellMarkerEnv+"=1", ShellIDEnv+"="+res.Shell.ID)

	program := a.getenv("SHELL")
	if program == "" {
		program = defaultShell
	}
	a.logger.Info(fmt.Sprintf("entering %s shell for %s", res.Toolchain.Name, res.System))
	return a.runner.Interactive(ctx, []string{program}, env)
}

func (a *App) evaluateCurrent(ctx context.Context, project *domain.Project, branches pipeline.Branch) (*domain.SystemResult, error) {
	results, err := a.pipeline.Evaluate(ctx, project, pipeline.Request{
		Systems:  []domain.System{a.system},
		Branches: branches,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.Annotate(domain.ErrSystemNotEnumerated,
			"the project enumerates no systems", "system", string(a.system))
	}
	return &results[0], nil
}

// PlanOptions configures Plan.
type PlanOptions struct {
	JSON bool
}

// Plan evaluates every project system and reports the outcome of each.
func (a *App) Plan(ctx context.Context, opts PlanOptions) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	results, err := a.pipeline.Evaluate(ctx, project, pipeline.Request{Branches: pipeline.BranchAll})
	if err != nil {
		return err
	}

	reports := make([]systemReport, len(results))
	for i := range results {
		reports[i] = newSystemReport(&results[i])
	}
	if err := a.writeReports(reports, opts.JSON); err != nil {
		return err
	}
	return failures(results, (*domain.SystemResult).Err)
}

// Watch re-plans the current system whenever the source tree changes and logs the new
// store path when the address changed. It returns when ctx is done.
func (a *App) Watch(ctx context.Context) error {
	project, err := a.load()
	if err != nil {
		return err
	}

	if err := a.watcher.Start(ctx, project.SourceRoot); err != nil {
		return zerr.Wrap(err, "failed to start watcher")
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	a.logger.Info(fmt.Sprintf("watching %s", project.SourceRoot))

	var fingerprint, address string
	replan := func() {
		fp, err := a.scanner.Fingerprint(project.SourceRoot)
		if err != nil {
			a.logger.Error(err)
			return
		}
		if fp == fingerprint {
			return
		}
		fingerprint = fp

		res, err := a.evaluateCurrent(ctx, project, pipeline.BranchPackage)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Error(err)
			}
			return
		}
		if err := res.PackageErr(); err != nil {
			a.logger.Error(zerr.With(err, "system", string(res.System)))
			address = ""
			return
		}
		if res.Derivation.Address != address {
			address = res.Derivation.Address
			a.logger.Info(fmt.Sprintf("%s %s", res.System, res.Derivation.StorePath()))
		}
	}

	replan()
	for range a.watcher.Events() {
		if ctx.Err() != nil {
			break
		}
		replan()
	}
	return nil
}

// CleanOptions configures Clean.
type CleanOptions struct {
	Store bool
	Cache bool
}

// Clean removes the derivation store and the caches of the project. With neither option
// set it removes both.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	root, err := a.configLoader.Root(a.cwd)
	if err != nil {
		return err
	}
	if !options.Store && !options.Cache {
		options.Store, options.Cache = true, true
	}

	var errs error
	remove := func(path, name string) {
		if err := os.RemoveAll(filepath.Join(root, path)); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.logger.Info("removed " + name)
	}

	if options.Store {
		remove(domain.DefaultStorePath(), "derivation store")
	}
	if options.Cache {
		remove(domain.DefaultNixHubCachePath(), "tool cache")
		remove(domain.DefaultEnvCachePath(), "environment cache")
	}
	return errs
}
