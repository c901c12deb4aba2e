// Package container provides dependency injection for the application.
package container

import (
	"log/slog"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/application/services"
	domainservices "github.com/reglet-dev/autoslice/internal/domain/services"
	"github.com/reglet-dev/autoslice/internal/infrastructure/artifacts"
	"github.com/reglet-dev/autoslice/internal/infrastructure/catalog"
	"github.com/reglet-dev/autoslice/internal/infrastructure/engine"
	"github.com/reglet-dev/autoslice/internal/infrastructure/metrics"
	"github.com/reglet-dev/autoslice/internal/infrastructure/persistence/memory"
	"github.com/reglet-dev/autoslice/internal/infrastructure/process"
	"github.com/reglet-dev/autoslice/internal/infrastructure/projects"
	"github.com/reglet-dev/autoslice/internal/infrastructure/slicer"
	"github.com/reglet-dev/autoslice/internal/infrastructure/system"
	"github.com/reglet-dev/autoslice/internal/infrastructure/transfer"
	"github.com/reglet-dev/autoslice/internal/infrastructure/watch"
)

// Container holds all application dependencies.
type Container struct {
	config      *system.Config
	catalog     *catalog.DirSource
	projects    *projects.Walker
	store       *artifacts.Store
	engine      *engine.Engine
	distributor *engine.Distributor
	metrics     *metrics.Prometheus
	router      *services.ChangeRouter
	planUseCase *services.PlanProjectUseCase
	logger      *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger
	// Runner overrides the process runner used for the slicer and rsync.
	Runner process.Runner
}

// New creates a new dependency injection container from a validated config.
func New(cfg *system.Config, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Runner == nil {
		opts.Runner = process.NewExecRunner()
	}

	targets, err := cfg.ParsedTargets()
	if err != nil {
		return nil, err
	}

	// The artifact tree and the profiles are never projects.
	walker, err := projects.NewWalker(cfg.Projects, cfg.Extensions.Project, cfg.Output, cfg.Profiles)
	if err != nil {
		return nil, err
	}
	profiles := catalog.NewDirSource(cfg.Profiles, cfg.Extensions.Profile)
	layout := domainservices.NewArtifactLayout(cfg.Output, cfg.Extensions.Artifact)
	store := artifacts.NewStore(layout)

	engineCfg := engine.DefaultConfig()
	engineCfg.Policy = domainservices.DistributionPolicy{IncludeUntagged: cfg.Distribution.IncludeUntagged}
	engineCfg.MaxConcurrentSlices = cfg.Slicer.MaxConcurrent
	engineCfg.MirrorBatchSize = cfg.Transfer.MirrorBatchSize
	engineCfg.MaxConcurrentSends = cfg.Transfer.MaxConcurrent
	engineCfg.ArtifactExt = cfg.Extensions.Artifact

	recorder := metrics.New()
	selector := domainservices.NewTargetSelector(targets, engineCfg.Policy)
	distributor := engine.NewDistributor(
		transfer.NewRsync(opts.Runner, cfg.Transfer.Command),
		selector,
		cfg.Output,
		engineCfg,
		engine.WithTransferMetrics(recorder),
	)

	eng := engine.NewEngine(
		profiles,
		walker,
		slicer.NewPrusaSlicer(opts.Runner, cfg.Slicer.Command),
		store,
		engine.WithConfig(engineCfg),
		engine.WithDistributor(distributor),
		engine.WithRepository(memory.NewPassRepository(engine.DefaultHistoryLimit)),
		engine.WithMetrics(recorder),
	)

	router := services.NewChangeRouter(eng, walker, services.RouterConfig{
		ProfileRoot:   cfg.Profiles,
		ProfileExt:    cfg.Extensions.Profile,
		SweepOnRemove: cfg.Watch.SweepOnRemove,
	})

	return &Container{
		config:      cfg,
		catalog:     profiles,
		projects:    walker,
		store:       store,
		engine:      eng,
		distributor: distributor,
		metrics:     recorder,
		router:      router,
		planUseCase: services.NewPlanProjectUseCase(profiles, walker, layout, selector, opts.Logger),
		logger:      opts.Logger,
	}, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *system.Config {
	return c.config
}

// Catalog returns the profile catalog source.
func (c *Container) Catalog() ports.CatalogSource {
	return c.catalog
}

// Projects returns the project source.
func (c *Container) Projects() ports.ProjectSource {
	return c.projects
}

// Store returns the artifact store.
func (c *Container) Store() *artifacts.Store {
	return c.store
}

// Engine returns the regeneration engine.
func (c *Container) Engine() *engine.Engine {
	return c.engine
}

// Distributor returns the distributor used by the engine.
func (c *Container) Distributor() *engine.Distributor {
	return c.distributor
}

// Metrics returns the Prometheus recorder shared by the engine and distributor.
func (c *Container) Metrics() *metrics.Prometheus {
	return c.metrics
}

// Router returns the change router feeding the engine.
func (c *Container) Router() *services.ChangeRouter {
	return c.router
}

// PlanProjectUseCase returns the plan use case.
func (c *Container) PlanProjectUseCase() *services.PlanProjectUseCase {
	return c.planUseCase
}

// ProjectWatcher creates a watcher for project files. The artifact tree is excluded.
func (c *Container) ProjectWatcher() *watch.Watcher {
	return watch.New("projects", c.config.Projects, c.config.Extensions.Project,
		c.config.Watch.Debounce, c.config.Output, c.config.Profiles)
}

// ProfileWatcher creates a watcher for slicer profiles.
func (c *Container) ProfileWatcher() *watch.Watcher {
	return watch.New("profiles", c.config.Profiles, c.config.Extensions.Profile, c.config.Watch.Debounce)
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
