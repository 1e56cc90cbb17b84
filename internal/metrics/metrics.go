// Package metrics instruments the engine with Prometheus collectors. It
// replaces the teacher's hand-rolled pipelineMetrics (internal/app/metrics.go,
// an in-memory per-step start/end/status/skip-reason map written out as its
// own JSON summary) with github.com/prometheus/client_golang, the
// idiomatic choice already present in this corpus's service-oriented repos.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the engine registers. Construct one per
// process and pass it explicitly (spec.md §9, "no ambient singletons").
type Metrics struct {
	registry *prometheus.Registry

	sourceDuration *prometheus.HistogramVec
	sourceStatus   *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	targetsTotal   *prometheus.CounterVec
}

// New builds and registers the collector set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "subreckon",
			Subsystem: "source",
			Name:      "duration_seconds",
			Help:      "Duration of one source runner invocation against one target.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		sourceStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subreckon",
			Subsystem: "source",
			Name:      "runs_total",
			Help:      "Terminal status count per source.",
		}, []string{"source", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subreckon",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache read outcomes.",
		}, []string{"outcome"}),
		targetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subreckon",
			Subsystem: "driver",
			Name:      "targets_total",
			Help:      "Targets processed by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.sourceDuration, m.sourceStatus, m.cacheLookups, m.targetsTotal)
	return m
}

// Registry exposes the underlying registry for an HTTP /metrics handler,
// left to the external collaborator that owns the CLI's admin surface.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSource records one source runner's wall-clock duration and
// terminal status.
func (m *Metrics) ObserveSource(source, status string, duration time.Duration) {
	m.sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.sourceStatus.WithLabelValues(source, status).Inc()
}

// ObserveCache records a cache read outcome: "hit", "miss", or "skipped"
// (lock contention). A corrupt or checksum-mismatched entry is recorded as
// "miss" (spec.md §4.5/§7).
func (m *Metrics) ObserveCache(outcome string) {
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveTarget records one Driver-level target outcome: "success",
// "failed", or "timeout".
func (m *Metrics) ObserveTarget(outcome string) {
	m.targetsTotal.WithLabelValues(outcome).Inc()
}
