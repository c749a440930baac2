// Package pipeline evaluates a project across its systems.
//
// For every system the base index is composed with the project overlays, a toolchain is
// resolved from it, and two independent branches run concurrently: the package branch
// (plan, then wrap) and the shell branch (assemble). Systems are evaluated in parallel and a
// failure in one never affects another.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/compositor"
	"go.trai.ch/kiln/internal/engine/devshell"
	"go.trai.ch/kiln/internal/engine/planner"
	"go.trai.ch/kiln/internal/engine/toolchain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Branch selects which per-system branches run.
type Branch uint8

const (
	// BranchPackage plans the derivation and wraps its app.
	BranchPackage Branch = 1 << iota
	// BranchShell assembles the dev shell.
	BranchShell

	BranchAll = BranchPackage | BranchShell
)

// Request selects what Evaluate computes.
type Request struct {
	// Systems restricts evaluation to a subset of the project systems. Empty means all of them.
	Systems  []domain.System
	Branches Branch
}

// Pipeline evaluates projects. It holds no per-evaluation state and is safe for concurrent use.
type Pipeline struct {
	scanner   ports.SourceScanner
	locks     ports.LockReader
	catalog   ports.ToolCatalog
	store     ports.DerivationStore
	telemetry ports.Telemetry
	limit     int
}

// New creates a Pipeline.
func New(
	scanner ports.SourceScanner,
	locks ports.LockReader,
	catalog ports.ToolCatalog,
	store ports.DerivationStore,
	telemetry ports.Telemetry,
) *Pipeline {
	return &Pipeline{
		scanner:   scanner,
		locks:     locks,
		catalog:   catalog,
		store:     store,
		telemetry: telemetry,
		limit:     runtime.NumCPU(),
	}
}

// WithLimit caps the number of systems evaluated at once.
func (p *Pipeline) WithLimit(n int) *Pipeline {
	if n > 0 {
		p.limit = n
	}
	return p
}

// inputs are the system independent inputs of the package branch.
type inputs struct {
	source domain.SourceTree
	lock   domain.LockFile
	err    error
}

// tools are the catalog packages per system, and the failure of every spec that could not
// be resolved, keyed by the name it would have in the index.
type tools struct {
	bySystem map[domain.System][]domain.Package
	failures map[domain.ToolRef]error
}

// Evaluate runs the requested branches for every selected system. Results are in
// enumeration order. Failures are recorded per system and stage; the returned error is
// only set when the selection is invalid or ctx is done.
func (p *Pipeline) Evaluate(ctx context.Context, project *domain.Project, req Request) ([]domain.SystemResult, error) {
	systems, err := selectSystems(project, req.Systems)
	if err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return nil, nil
	}
	if req.Branches == 0 {
		req.Branches = BranchAll
	}

	var in inputs
	if req.Branches&BranchPackage != 0 {
		in = p.loadInputs(ctx, project)
	}

	tl, err := p.resolveTools(ctx, project)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SystemResult, len(systems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, system := range systems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.evaluateSystem(gctx, project, system, req.Branches, in, tl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func selectSystems(project *domain.Project, requested []domain.System) ([]domain.System, error) {
	enumerated := slices.Collect(domain.Enumerate(project.EnumeratedSystems()))
	if len(requested) == 0 || len(enumerated) == 0 {
		return enumerated, nil
	}

	var out []domain.System
	for system := range domain.Enumerate(requested) {
		if !slices.Contains(enumerated, system) {
			return nil, domain.Annotate(domain.ErrSystemNotEnumerated,
				fmt.Sprintf("%s is not one of the project systems", system), "system", system)
		}
		out = append(out, system)
	}
	return out, nil
}

func (p *Pipeline) loadInputs(ctx context.Context, project *domain.Project) inputs {
	ctx, vertex := p.telemetry.Record(ctx, "scan source")

	var in inputs
	in.source, in.err = p.scanner.Scan(ctx, project.SourceRoot, project.ManifestPath)
	if in.err == nil {
		vertex.Log(domain.LogLevelDebug, fmt.Sprintf("%d files, %s", in.source.Files, in.source.Digest))
		in.lock, in.err = p.locks.Read(project.LockPath)
		if in.source.Empty() && errors.Is(in.err, domain.ErrLockFileNotFound) {
			// An empty tree has no dependencies to lock.
			in.lock, in.err = domain.LockFile{Path: project.LockPath}, nil
		}
	}
	vertex.Complete(in.err)
	return in
}

func (p *Pipeline) resolveTools(ctx context.Context, project *domain.Project) (tools, error) {
	tl := tools{
		bySystem: make(map[domain.System][]domain.Package),
		failures: make(map[domain.ToolRef]error),
	}
	if len(project.Tools) == 0 {
		return tl, nil
	}

	ctx, vertex := p.telemetry.Record(ctx, "resolve tools")

	resolved := make([]map[domain.System]domain.Package, len(project.Tools))
	failures := make([]error, len(project.Tools))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i, spec := range project.Tools {
		g.Go(func() error {
			pkgs, err := p.catalog.Resolve(gctx, spec)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				return nil
			}
			resolved[i] = pkgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		vertex.Complete(err)
		return tools{}, err
	}

	for i, spec := range project.Tools {
		if failures[i] != nil {
			tl.failures[spec.Ref()] = failures[i]
			vertex.Log(domain.LogLevelWarn, fmt.Sprintf("%s@%s: %v", spec.Name, spec.Version, failures[i]))
			continue
		}
		for system, pkg := range resolved[i] {
			pkg.Name = string(spec.Ref())
			tl.bySystem[system] = append(tl.bySystem[system], pkg)
		}
	}
	vertex.Complete(nil)
	return tl, nil
}

// stage runs fn inside a telemetry vertex for system.
func (p *Pipeline) stage(ctx context.Context, system domain.System, stage domain.Stage, fn func(context.Context, ports.Vertex) error) error {
	ctx, vertex := p.telemetry.Record(ctx, fmt.Sprintf("%s %s", system, stage))
	err := fn(ctx, vertex)
	vertex.Complete(err)
	return err
}

func (p *Pipeline) evaluateSystem(
	ctx context.Context,
	project *domain.Project,
	system domain.System,
	branches Branch,
	in inputs,
	tl tools,
) domain.SystemResult {
	res := domain.SystemResult{System: system, Errors: make(map[domain.Stage]error)}

	var index *domain.Index
	if err := p.stage(ctx, system, domain.StageCompose, func(context.Context, ports.Vertex) error {
		// Catalog tools go first so project packages can override them.
		base := domain.NewIndex(system, slices.Concat(tl.bySystem[system], project.Packages)...)
		var err error
		index, err = compositor.Compose(base, project.Overlays, system)
		return err
	}); err != nil {
		res.Errors[domain.StageCompose] = err
		return res
	}
	res.Index = index

	var tc domain.Toolchain
	if err := p.stage(ctx, system, domain.StageResolve, func(_ context.Context, v ports.Vertex) error {
		var err error
		tc, err = toolchain.Resolve(index, project.Channel, system)
		if err == nil {
			v.Log(domain.LogLevelInfo, fmt.Sprintf("%s %s", tc.Name, tc.Version))
		}
		return err
	}); err != nil {
		res.Errors[domain.StageResolve] = err
		return res
	}
	res.Toolchain = &tc

	var (
		wg  sync.WaitGroup
		pkg packageResult
		sh  shellResult
	)
	if branches&BranchPackage != 0 {
		wg.Go(func() { pkg = p.packageBranch(ctx, project, system, tc, in) })
	}
	if branches&BranchShell != 0 {
		wg.Go(func() { sh = p.shellBranch(ctx, project, system, index, tc, tl) })
	}
	wg.Wait()

	res.Derivation, res.App, res.Cached = pkg.derivation, pkg.app, pkg.cached
	res.Shell = sh.shell
	for stage, err := range map[domain.Stage]error{
		domain.StagePlan:     pkg.planErr,
		domain.StageWrap:     pkg.wrapErr,
		domain.StageAssemble: sh.err,
	} {
		if err != nil {
			res.Errors[stage] = err
		}
	}
	return res
}

type packageResult struct {
	derivation *domain.Derivation
	app        *domain.AppRef
	cached     bool
	planErr    error
	wrapErr    error
}

func (p *Pipeline) packageBranch(
	ctx context.Context,
	project *domain.Project,
	system domain.System,
	tc domain.Toolchain,
	in inputs,
) packageResult {
	var out packageResult

	out.planErr = p.stage(ctx, system, domain.StagePlan, func(_ context.Context, v ports.Vertex) error {
		if in.err != nil {
			return in.err
		}
		drv, err := planner.Plan(in.source, in.lock, tc)
		if err != nil {
			return err
		}
		out.derivation, out.cached = p.memoize(project.Dir, drv, v)
		v.Log(domain.LogLevelInfo, drv.StorePath())
		return nil
	})
	if out.planErr != nil {
		return out
	}

	out.wrapErr = p.stage(ctx, system, domain.StageWrap, func(context.Context, ports.Vertex) error {
		name := project.Program
		if name == "" {
			name = planner.DefaultOutput(out.derivation)
		}
		app, err := planner.Wrap(out.derivation, name)
		if err != nil {
			return err
		}
		out.app = &app
		return nil
	})
	return out
}

// memoize records drv in the store unless its address is already there, and reports
// whether it was. Store failures are logged and never fail the plan.
func (p *Pipeline) memoize(root string, drv *domain.Derivation, v ports.Vertex) (*domain.Derivation, bool) {
	stored, err := p.store.Get(root, drv.Address)
	if err != nil {
		v.Log(domain.LogLevelWarn, fmt.Sprintf("ignoring store record: %v", err))
	}
	if stored != nil && stored.Address == drv.Address && stored.System == drv.System {
		v.Cached()
		return drv, true
	}
	if err := p.store.Put(root, drv); err != nil {
		v.Log(domain.LogLevelWarn, zerr.Wrap(err, "failed to store derivation").Error())
	}
	return drv, false
}

type shellResult struct {
	shell *domain.DevShell
	err   error
}

func (p *Pipeline) shellBranch(
	ctx context.Context,
	project *domain.Project,
	system domain.System,
	index *domain.Index,
	tc domain.Toolchain,
	tl tools,
) shellResult {
	var out shellResult
	out.err = p.stage(ctx, system, domain.StageAssemble, func(context.Context, ports.Vertex) error {
		shell, err := devshell.Assemble(index, tc, project.ShellTools)
		if err != nil {
			return errors.Join(err, toolFailures(project.ShellTools, tl))
		}
		out.shell = shell
		return nil
	})
	return out
}

// toolFailures returns why requested tools could not be resolved from the catalog, if they were not.
func toolFailures(requested domain.ToolSet, tl tools) error {
	var errs []error
	for _, ref := range requested.Sorted() {
		if err, ok := tl.failures[ref]; ok {
			errs = append(errs, zerr.With(err, "tool", string(ref)))
		}
	}
	return errors.Join(errs...)
}
