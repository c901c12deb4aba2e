package services

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// RouterConfig configures how watch events become regeneration requests.
type RouterConfig struct {
	ProfileRoot string
	ProfileExt  string
	// SweepOnRemove queues a stale sweep when a project file is removed.
	SweepOnRemove bool
}

// ChangeRouter turns debounced watch events into regeneration requests.
// It never touches the artifact tree itself; it only enqueues.
type ChangeRouter struct {
	regenerator ports.Regenerator
	projects    ports.ProjectSource
	config      RouterConfig
}

// NewChangeRouter creates a new change router.
func NewChangeRouter(regenerator ports.Regenerator, projects ports.ProjectSource, cfg RouterConfig) *ChangeRouter {
	return &ChangeRouter{
		regenerator: regenerator,
		projects:    projects,
		config:      cfg,
	}
}

// HandleProjectEvent routes a project file change.
// Updates sweep the project's old artifacts and then rebuild it; removals
// only sweep, and only when SweepOnRemove is set.
func (r *ChangeRouter) HandleProjectEvent(ctx context.Context, event ports.ChangeEvent) {
	project, err := r.projects.Resolve(event.Path)
	if err != nil {
		slog.WarnContext(ctx, "ignoring project event", "path", event.Path, "error", err)
		return
	}

	switch event.Kind {
	case ports.ChangeUpdate:
		slog.InfoContext(ctx, "project changed", "project", project.RelPath)
		r.regenerator.SweepProject(project)
		r.regenerator.RegenerateProject(project)
	case ports.ChangeRemove:
		if !r.config.SweepOnRemove {
			slog.DebugContext(ctx, "project removed, sweep disabled", "project", project.RelPath)
			return
		}
		slog.InfoContext(ctx, "project removed", "project", project.RelPath)
		r.regenerator.SweepProject(project)
	}
}

// HandleProfileEvent routes a profile file change. Both updates and removals
// invalidate only the permutations that apply the changed profile.
func (r *ChangeRouter) HandleProfileEvent(ctx context.Context, event ports.ChangeEvent) {
	ref, err := values.ParseProfilePath(r.config.ProfileRoot, event.Path, r.config.ProfileExt)
	if err != nil {
		slog.DebugContext(ctx, "ignoring profile event", "path", event.Path, "error", err)
		return
	}

	slog.InfoContext(ctx, "profile changed, regenerating dependent artifacts",
		"profile", ref.String(),
		"kind", string(event.Kind))
	r.regenerator.RegenerateForDirtyProfile(ref)
}
