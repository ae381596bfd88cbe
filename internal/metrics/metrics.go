package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNoData   = "no_data"
	OutcomeError    = "error"
	OutcomeCacheHit = "cache_hit"
)

// Metrics holds the Prometheus collectors for one resolution run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Lookups         *prometheus.CounterVec
	LookupLatency   prometheus.Histogram
	Placeholders    prometheus.Counter
	Roots           prometheus.Counter
	CyclesBroken    prometheus.Counter
	MaxDepth        prometheus.Gauge
	FeedRecords     *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtree_lookups_total",
			Help: "Customer lookups by outcome",
		}, []string{"outcome"}),
		LookupLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgtree_lookup_duration_seconds",
			Help:    "Duration of upstream customer lookups",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Placeholders: f.NewCounter(prometheus.CounterOpts{
			Name: "orgtree_placeholders_total",
			Help: "Parent records synthesised because the parent id was unknown",
		}),
		Roots: f.NewCounter(prometheus.CounterOpts{
			Name: "orgtree_roots_total",
			Help: "Customers assigned root depth",
		}),
		CyclesBroken: f.NewCounter(prometheus.CounterOpts{
			Name: "orgtree_cycles_broken_total",
			Help: "Parent references dropped because they closed a cycle",
		}),
		MaxDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "orgtree_max_depth",
			Help: "Deepest depth assigned in the last run",
		}),
		FeedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtree_feed_records_total",
			Help: "Customer records read from the input feed by source",
		}, []string{"source"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orgtree_resolve_duration_seconds",
			Help:    "Duration of a full resolution pass",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveLookup records a lookup outcome and, for upstream calls, its latency.
func (m *Metrics) ObserveLookup(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
	if outcome != OutcomeCacheHit {
		m.LookupLatency.Observe(d.Seconds())
	}
}

// IncPlaceholders records a synthesised parent.
func (m *Metrics) IncPlaceholders() {
	if m != nil {
		m.Placeholders.Inc()
	}
}

// IncRoots records a root assignment.
func (m *Metrics) IncRoots() {
	if m != nil {
		m.Roots.Inc()
	}
}

// IncCycles records a broken cycle.
func (m *Metrics) IncCycles() {
	if m != nil {
		m.CyclesBroken.Inc()
	}
}

// SetMaxDepth records the deepest depth of a run.
func (m *Metrics) SetMaxDepth(d int) {
	if m != nil {
		m.MaxDepth.Set(float64(d))
	}
}

// AddFeedRecords records n records read from source.
func (m *Metrics) AddFeedRecords(source string, n int) {
	if m != nil {
		m.FeedRecords.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveResolve records the duration of a resolution pass.
func (m *Metrics) ObserveResolve(d time.Duration) {
	if m != nil {
		m.ResolveDuration.Observe(d.Seconds())
	}
}

// Push sends the collected metrics to a Prometheus Pushgateway under job.
func (m *Metrics) Push(url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	return nil
}
