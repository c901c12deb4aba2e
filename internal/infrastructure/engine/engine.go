package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/repositories"
	"github.com/reglet-dev/autoslice/internal/domain/services"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/reglet-dev/autoslice/internal/infrastructure/artifacts"
	"github.com/reglet-dev/autoslice/internal/infrastructure/persistence/memory"
)

// ErrClosed is returned by Run once the engine has been closed and drained.
var ErrClosed = errors.New("engine closed")

// Ensure interface compliance
var _ ports.Regenerator = (*Engine)(nil)

// Engine owns the regeneration chain: a FIFO of requests executed one at a
// time by a single worker. A pass never starts before the previous one has
// finished, and every admitted request eventually runs.
type Engine struct {
	catalog     ports.CatalogSource
	projects    ports.ProjectSource
	slicer      ports.Slicer
	store       *artifacts.Store
	planner     *services.PermutationPlanner
	distributor *Distributor
	repository  repositories.PassRepository
	metrics     ports.MetricsRecorder
	config      Config

	mu      sync.Mutex
	queue   []entities.Request
	running bool
	closed  bool
	idle    chan struct{}
	wake    chan struct{}

	// Full-tree admission counters. requested counts admitted RegenerateAll
	// requests, completed counts those that have finished.
	requested int
	completed int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDistributor enables distribution of produced artifacts.
func WithDistributor(d *Distributor) Option {
	return func(e *Engine) {
		e.distributor = d
	}
}

// WithRepository records pass results in repo.
func WithRepository(repo repositories.PassRepository) Option {
	return func(e *Engine) {
		e.repository = repo
	}
}

// WithMetrics reports pass and queue measurements to m.
func WithMetrics(m ports.MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// NewEngine creates an engine. Call Run to start the worker.
func NewEngine(
	catalog ports.CatalogSource,
	projects ports.ProjectSource,
	slicer ports.Slicer,
	store *artifacts.Store,
	opts ...Option,
) *Engine {
	idle := make(chan struct{})
	close(idle)

	e := &Engine{
		catalog:  catalog,
		projects: projects,
		slicer:   slicer,
		store:    store,
		planner:  services.NewPermutationPlanner(),
		metrics:  ports.NopMetrics{},
		config:   DefaultConfig(),
		idle:     idle,
		wake:     make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.config = e.config.normalized()
	if e.repository == nil {
		e.repository = memory.NewPassRepository(DefaultHistoryLimit)
	}
	return e
}

// Repository returns the repository pass results are recorded in.
func (e *Engine) Repository() repositories.PassRepository {
	return e.repository
}

// RegenerateAll enqueues a full-tree pass. The request is dropped when more
// than one full-tree pass is already outstanding, because the one still
// waiting will observe every change made so far.
func (e *Engine) RegenerateAll() bool {
	return e.Enqueue(entities.Request{Kind: values.RequestRegenerateAll})
}

// RegenerateProject enqueues regeneration of every artifact for project.
func (e *Engine) RegenerateProject(project entities.Project) bool {
	return e.Enqueue(entities.Request{Kind: values.RequestRegenerateProject, Project: project})
}

// RegenerateForDirtyProfile enqueues regeneration of the artifacts that apply ref.
func (e *Engine) RegenerateForDirtyProfile(ref values.ProfileRef) bool {
	return e.Enqueue(entities.Request{Kind: values.RequestRegenerateProfile, Profile: ref})
}

// SweepProject enqueues deletion of every artifact derived from project.
func (e *Engine) SweepProject(project entities.Project) bool {
	return e.Enqueue(entities.Request{Kind: values.RequestSweepProject, Project: project})
}

// Enqueue appends req to the chain and reports whether it was admitted.
func (e *Engine) Enqueue(req entities.Request) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		slog.Warn("engine closed, dropping request", "kind", req.Kind, "subject", req.Subject())
		return false
	}

	if req.Kind.IsFullTree() {
		if e.requested-1 > e.completed {
			slog.Warn("throttling full regeneration", "outstanding", e.requested-e.completed)
			e.metrics.RequestThrottled(req.Kind)
			return false
		}
		e.requested++
	}

	e.queue = append(e.queue, req)
	e.metrics.QueueDepth(len(e.queue))
	if !e.running {
		e.running = true
		e.idle = make(chan struct{})
	}
	e.signal()

	slog.Debug("request queued", "kind", req.Kind, "subject", req.Subject(), "depth", len(e.queue))
	return true
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run executes queued requests until ctx is cancelled or the engine is closed
// and its queue is empty. A pass that has started always runs to completion.
func (e *Engine) Run(ctx context.Context) error {
	for {
		req, err := e.next(ctx)
		if err != nil {
			return err
		}
		e.execute(context.WithoutCancel(ctx), req)
	}
}

// next blocks until a request is available.
func (e *Engine) next(ctx context.Context) (entities.Request, error) {
	e.mu.Lock()
	for len(e.queue) == 0 {
		if e.running {
			e.running = false
			close(e.idle)
		}
		if e.closed {
			e.mu.Unlock()
			return entities.Request{}, ErrClosed
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			return entities.Request{}, ctx.Err()
		case <-e.wake:
		}
		e.mu.Lock()
	}

	req := e.queue[0]
	e.queue[0] = entities.Request{}
	e.queue = e.queue[1:]
	e.metrics.QueueDepth(len(e.queue))
	e.mu.Unlock()
	return req, nil
}

// Drain blocks until the queue is empty and no pass is running, then waits
// for background transfers.
func (e *Engine) Drain(ctx context.Context) error {
	e.mu.Lock()
	idle := e.idle
	e.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}

	if e.distributor == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		e.distributor.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admitting requests. Requests already queued still run; Run
// returns ErrClosed once they have.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.signal()
}

// Pending returns the number of queued requests that have not started.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
