// Package metrics holds the Prometheus metrics for discovery and migration
// runs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Push outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeExisting  = "already_migrated"
)

// Metrics holds all Prometheus metrics for the migrator.
type Metrics struct {
	// Discovery metrics
	Discovered        *prometheus.CounterVec
	DiscoveryFailures *prometheus.CounterVec

	// Migration metrics
	Entities    *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	Cycles      prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates a Metrics instance registered with registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Discovered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngmigrator_discovered_entities_total",
				Help: "Total number of legacy entities discovered",
			},
			[]string{"type"},
		),
		DiscoveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngmigrator_discovery_failures_total",
				Help: "Total number of entities whose discovery failed",
			},
			[]string{"type"},
		),
		Entities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ngmigrator_migrated_entities_total",
				Help: "Total number of entities processed by migration runs, by outcome",
			},
			[]string{"type", "outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ngmigrator_run_duration_seconds",
				Help:    "Migration run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"mode", "success"},
		),
		Cycles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ngmigrator_dependency_cycles_total",
				Help: "Total number of runs stopped by a dependency cycle",
			},
		),
		gatherer: registry,
	}
}

// NewRegistry creates a fresh registry with the Go and process collectors
// and the migrator metrics.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg, NewMetrics(reg)
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// EntityDiscovered counts one discovered entity.
func (m *Metrics) EntityDiscovered(entityType string) {
	if m == nil {
		return
	}
	m.Discovered.WithLabelValues(entityType).Inc()
}

// DiscoveryFailed counts one failed child discovery.
func (m *Metrics) DiscoveryFailed(entityType string) {
	if m == nil {
		return
	}
	m.DiscoveryFailures.WithLabelValues(entityType).Inc()
}

// EntityProcessed counts one entity outcome.
func (m *Metrics) EntityProcessed(entityType, outcome string) {
	if m == nil {
		return
	}
	m.Entities.WithLabelValues(entityType, outcome).Inc()
}

// CycleDetected counts a run stopped by a cycle.
func (m *Metrics) CycleDetected() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}

// ObserveRun records the duration of one run.
func (m *Metrics) ObserveRun(mode string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	s := "false"
	if success {
		s = "true"
	}
	m.RunDuration.WithLabelValues(mode, s).Observe(d.Seconds())
}
