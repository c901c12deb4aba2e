// Package metrics exposes engine and distribution measurements to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

const namespace = "autoslice"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
const shutdownTimeout = 5 * time.Second

// Ensure interface compliance
var _ ports.MetricsRecorder = (*Prometheus)(nil)

// Prometheus records measurements in its own registry.
type Prometheus struct {
	registry     *prometheus.Registry
	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	artifacts    *prometheus.CounterVec
	throttled    *prometheus.CounterVec
	queueDepth   prometheus.Gauge
	transfers    *prometheus.CounterVec
}

// New creates a recorder with every collector registered.
func New() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed regeneration passes.",
		}, []string{"kind"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of regeneration passes.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"kind"}),
		artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts handled by regeneration passes.",
		}, []string{"outcome"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_throttled_total",
			Help:      "Requests dropped because an equivalent one was already waiting.",
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting for the regeneration worker.",
		}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfers to distribution targets.",
		}, []string{"mode", "outcome"}),
	}

	m.registry.MustRegister(
		m.passes,
		m.passDuration,
		m.artifacts,
		m.throttled,
		m.queueDepth,
		m.transfers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

// PassCompleted counts a finished pass and the artifacts it touched.
func (m *Prometheus) PassCompleted(kind values.RequestKind, summary execution.Summary, duration time.Duration) {
	m.passes.WithLabelValues(kind.String()).Inc()
	m.passDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
	m.artifacts.WithLabelValues("produced").Add(float64(summary.Produced))
	m.artifacts.WithLabelValues("failed").Add(float64(summary.Failed))
	m.artifacts.WithLabelValues("removed").Add(float64(summary.Removed))
}

// RequestThrottled counts a dropped request.
func (m *Prometheus) RequestThrottled(kind values.RequestKind) {
	m.throttled.WithLabelValues(kind.String()).Inc()
}

// QueueDepth sets the number of waiting requests.
func (m *Prometheus) QueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

// TransferCompleted counts one mirror or send.
func (m *Prometheus) TransferCompleted(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.transfers.WithLabelValues(mode, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Prometheus) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}()

	slog.InfoContext(ctx, "serving metrics", "addr", listener.Addr().String())
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
