package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"golang.org/x/sync/errgroup"
)

// execute runs one pass and records its result. Failures inside a pass are
// logged; they never stop the chain.
func (e *Engine) execute(ctx context.Context, req entities.Request) {
	result := execution.NewPassResult(req.Kind, req.Subject())
	logger := slog.With("pass_id", result.GetID().String(), "kind", req.Kind, "subject", req.Subject())
	logger.Info("pass started")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pass panicked", "panic", r)
		}
		if req.Kind.IsFullTree() {
			e.completeFullTree()
		}
		e.record(ctx, logger, result)
	}()

	switch req.Kind {
	case values.RequestRegenerateAll:
		e.regenerateAll(ctx, logger, result, req.SkipWipe)
	case values.RequestRegenerateProject:
		e.regenerateProject(ctx, logger, result, req.Project)
	case values.RequestRegenerateProfile:
		e.regenerateForProfile(ctx, logger, result, req.Profile)
	case values.RequestSweepProject:
		e.sweepProject(ctx, logger, result, req.Project)
	default:
		logger.Error("unknown request kind")
	}
}

func (e *Engine) completeFullTree() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.completed++
}

// lastFullTree reports whether no further full-tree pass is outstanding.
func (e *Engine) lastFullTree() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed+1 == e.requested
}

func (e *Engine) record(ctx context.Context, logger *slog.Logger, result *execution.PassResult) {
	result.Finalize()
	summary := result.Summary()
	logger.Info("pass complete",
		"produced", summary.Produced,
		"failed", summary.Failed,
		"removed", summary.Removed,
		"duration", result.Duration)
	e.metrics.PassCompleted(result.Kind, summary, result.Duration)

	if err := e.repository.Save(ctx, result); err != nil {
		logger.Warn("failed to record pass", "error", err)
	}
}

// regenerateAll wipes the tree (unless skipWipe), slices every project
// against the full catalog and, when no later full-tree pass is waiting,
// mirrors the tree onto every target.
func (e *Engine) regenerateAll(ctx context.Context, logger *slog.Logger, result *execution.PassResult, skipWipe bool) {
	catalog, err := e.catalog.Load(ctx)
	if err != nil {
		logger.Error("failed to load profiles", "error", err)
		return
	}
	projects, err := e.projects.List(ctx)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		return
	}

	if skipWipe {
		logger.Info("keeping existing artifacts")
	} else if err := e.store.WipeAll(); err != nil {
		logger.Error("failed to wipe artifact tree", "error", err)
	}

	for _, project := range projects {
		e.slice(ctx, logger, result, project, e.planner.Plan(project, catalog))
	}

	if e.distributor != nil && e.lastFullTree() {
		e.distributor.MirrorAll(ctx, catalog)
	}
}

// regenerateProject reslices every planned permutation of one project and
// sends the outputs to matching targets.
func (e *Engine) regenerateProject(ctx context.Context, logger *slog.Logger, result *execution.PassResult, project entities.Project) {
	if _, err := os.Stat(project.Path); err != nil {
		logger.Warn("project no longer exists, skipping", "error", err)
		return
	}

	catalog, err := e.catalog.Load(ctx)
	if err != nil {
		logger.Error("failed to load profiles", "error", err)
		return
	}

	produced := e.slice(ctx, logger, result, project, e.planner.Plan(project, catalog))
	e.distribute(ctx, produced)
}

// regenerateForProfile removes every artifact that applies ref, then
// reslices only the permutations that apply ref. A removed profile leaves
// nothing to reslice.
//
// When ref's category has just become empty, or ref is the only profile in
// it, the none slot of that axis appears or disappears for every project and
// the whole tree is reconciled instead.
func (e *Engine) regenerateForProfile(ctx context.Context, logger *slog.Logger, result *execution.PassResult, ref values.ProfileRef) {
	removed, err := e.store.RemoveByProfile(ref)
	for _, a := range removed {
		result.AddRemoved(a.RelPath)
	}
	if err != nil {
		logger.Error("failed to remove artifacts", "error", err)
	}

	catalog, err := e.catalog.Load(ctx)
	if err != nil {
		logger.Error("failed to load profiles", "error", err)
		return
	}
	if names := catalog.Names(ref.Category); len(names) == 0 || (len(names) == 1 && names[0] == ref.Name) {
		logger.Info("profile category changed shape, reconciling every project", "category", ref.Category)
		e.reconcile(ctx, logger, result, catalog)
		return
	}
	if !catalog.Contains(ref) {
		logger.Info("profile no longer in catalog", "removed", len(removed))
		return
	}

	projects, err := e.projects.List(ctx)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		return
	}

	var produced []entities.Artifact
	for _, project := range projects {
		perms := e.planner.PlanForProfile(project, catalog, ref)
		produced = append(produced, e.slice(ctx, logger, result, project, perms)...)
	}
	e.distribute(ctx, produced)
}

// reconcile brings the tree in line with catalog: indexed artifacts that no
// live project plans any more are deleted and planned artifacts missing from
// the index are sliced and sent.
func (e *Engine) reconcile(ctx context.Context, logger *slog.Logger, result *execution.PassResult, catalog *entities.Catalog) {
	projects, err := e.projects.List(ctx)
	if err != nil {
		logger.Error("failed to list projects", "error", err)
		return
	}

	layout := e.store.Layout()
	planned := make(map[string]struct{})
	missing := make(map[string][]values.Permutation, len(projects))
	for _, project := range projects {
		for _, perm := range e.planner.Plan(project, catalog) {
			a := layout.Artifact(project, perm)
			planned[a.ID()] = struct{}{}
			if !e.store.Indexed(a) {
				missing[project.RelPath] = append(missing[project.RelPath], perm)
			}
		}
	}

	stale, err := e.store.RemoveExcept(planned)
	for _, a := range stale {
		result.AddRemoved(a.RelPath)
	}
	if err != nil {
		logger.Error("failed to remove stale artifacts", "error", err)
	}

	var produced []entities.Artifact
	for _, project := range projects {
		if perms := missing[project.RelPath]; len(perms) > 0 {
			produced = append(produced, e.slice(ctx, logger, result, project, perms)...)
		}
	}
	e.distribute(ctx, produced)
}

// sweepProject deletes every artifact derived from project.
func (e *Engine) sweepProject(ctx context.Context, logger *slog.Logger, result *execution.PassResult, project entities.Project) {
	siblings, err := e.projects.List(ctx)
	if err != nil {
		logger.Warn("failed to list projects, sweeping without sibling check", "error", err)
	}

	removed, err := e.store.SweepProject(project, siblings)
	result.AddRemoved(removed...)
	if err != nil {
		logger.Error("failed to sweep artifacts", "error", err)
	}
}

// slice produces the artifacts for perms in parallel. Each artifact is
// independent: a failure is recorded and does not affect the others.
func (e *Engine) slice(
	ctx context.Context,
	logger *slog.Logger,
	result *execution.PassResult,
	project entities.Project,
	perms []values.Permutation,
) []entities.Artifact {
	var (
		mu       sync.Mutex
		produced []entities.Artifact
		g        errgroup.Group
	)
	g.SetLimit(e.config.MaxConcurrentSlices)

	for _, a := range e.store.Layout().Artifacts(project, perms) {
		g.Go(func() error {
			if err := e.sliceOne(ctx, a); err != nil {
				logger.Error("slice failed", "artifact", a.RelPath, "error", err)
				result.AddFailed(a.RelPath)
				return nil
			}
			e.store.Record(a)
			result.AddProduced(a.RelPath)

			mu.Lock()
			produced = append(produced, a)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(produced, func(a, b entities.Artifact) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	return produced
}

func (e *Engine) sliceOne(ctx context.Context, a entities.Artifact) error {
	if err := e.store.Prepare(a); err != nil {
		return err
	}

	job := entities.SliceJob{Artifact: a}
	for _, ref := range a.Permutation.Profiles() {
		job.ProfileFiles = append(job.ProfileFiles, e.catalog.ProfileFile(ref))
	}

	if err := e.slicer.Slice(ctx, job); err != nil {
		return err
	}
	if !e.store.Exists(a) {
		return fmt.Errorf("slicer reported success but %s was not written", a.RelPath)
	}
	return nil
}

func (e *Engine) distribute(ctx context.Context, produced []entities.Artifact) {
	if e.distributor == nil {
		return
	}
	e.distributor.SendAsync(ctx, produced)
}
