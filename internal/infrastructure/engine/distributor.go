package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/services"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Distributor pushes artifacts to remote targets. Transfer failures are logged
// and counted but never propagate into the regeneration chain.
type Distributor struct {
	transferer ports.Transferer
	selector   *services.TargetSelector
	sends      *semaphore.Weighted
	root       string
	ext        string
	batchSize  int
	metrics    ports.MetricsRecorder
	pending    sync.WaitGroup
	failures   atomic.Int64
}

// DistributorOption configures a Distributor.
type DistributorOption func(*Distributor)

// WithTransferMetrics reports every mirror and send to m.
func WithTransferMetrics(m ports.MetricsRecorder) DistributorOption {
	return func(d *Distributor) {
		d.metrics = m
	}
}

// NewDistributor creates a distributor that mirrors root onto the selector's targets.
func NewDistributor(
	transferer ports.Transferer,
	selector *services.TargetSelector,
	root string,
	cfg Config,
	opts ...DistributorOption,
) *Distributor {
	cfg = cfg.normalized()
	d := &Distributor{
		transferer: transferer,
		selector:   selector,
		sends:      semaphore.NewWeighted(int64(cfg.MaxConcurrentSends)),
		root:       root,
		ext:        cfg.ArtifactExt,
		batchSize:  cfg.MirrorBatchSize,
		metrics:    ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Failures returns how many transfers have failed so far.
func (d *Distributor) Failures() int64 {
	return d.failures.Load()
}

// MirrorAll mirrors the whole artifact tree onto every target, deleting remote
// files that no longer exist locally. Restricted targets get filter rules so
// they neither receive nor lose artifacts for printers they do not allow.
// Mirrors run in batches; MirrorAll returns when every batch has finished.
func (d *Distributor) MirrorAll(ctx context.Context, catalog *entities.Catalog) {
	targets := d.selector.All()
	if len(targets) == 0 {
		slog.DebugContext(ctx, "no distribution targets configured")
		return
	}

	slog.InfoContext(ctx, "mirroring artifact tree", "targets", len(targets))
	for start := 0; start < len(targets); start += d.batchSize {
		end := min(start+d.batchSize, len(targets))

		var g errgroup.Group
		for _, target := range targets[start:end] {
			g.Go(func() error {
				d.mirror(ctx, target, catalog)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (d *Distributor) mirror(ctx context.Context, target entities.Target, catalog *entities.Catalog) {
	job := entities.MirrorJob{
		Source:      d.root,
		Destination: target.Address,
		Delete:      true,
		Filters:     d.selector.FilterRules(target, catalog, d.ext),
	}
	err := d.transferer.Mirror(ctx, job)
	d.metrics.TransferCompleted(ports.TransferMirror, err)
	if err != nil {
		d.failures.Add(1)
		slog.ErrorContext(ctx, "mirror failed", "target", target.String(), "error", err)
		return
	}
	slog.InfoContext(ctx, "mirror complete", "target", target.String())
}

// SendAsync copies each artifact to every target that accepts it. It returns
// immediately; the transfers are tracked and can be awaited with Wait.
func (d *Distributor) SendAsync(ctx context.Context, artifacts []entities.Artifact) {
	if len(artifacts) == 0 || len(d.selector.All()) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		d.send(ctx, artifacts)
	}()
}

func (d *Distributor) send(ctx context.Context, artifacts []entities.Artifact) {
	var g errgroup.Group
	for _, a := range artifacts {
		for _, target := range d.selector.Targets(a) {
			if err := d.sends.Acquire(ctx, 1); err != nil {
				return
			}
			g.Go(func() error {
				defer d.sends.Release(1)
				d.sendOne(ctx, target, a)
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (d *Distributor) sendOne(ctx context.Context, target entities.Target, a entities.Artifact) {
	job := entities.SendJob{
		Source:      a.Path,
		Destination: target.Destination(a.RelPath),
	}
	err := d.transferer.Send(ctx, job)
	d.metrics.TransferCompleted(ports.TransferSend, err)
	if err != nil {
		d.failures.Add(1)
		slog.ErrorContext(ctx, "send failed", "artifact", a.RelPath, "target", target.String(), "error", err)
		return
	}
	slog.DebugContext(ctx, "sent artifact", "artifact", a.RelPath, "target", target.String())
}

// Wait blocks until every transfer started by SendAsync has finished.
func (d *Distributor) Wait() {
	d.pending.Wait()
}
