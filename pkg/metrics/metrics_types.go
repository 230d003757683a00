package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all telemetry for the application.
type Registry struct {
	// Analysis metrics
	AnalysisRunsTotal    *prometheus.CounterVec
	AnalysisRunDuration  prometheus.Histogram
	ComponentDuration    *prometheus.HistogramVec
	ComponentFailures    *prometheus.CounterVec
	CyclesTruncatedTotal prometheus.Counter
	PatternsDetected     *prometheus.CounterVec
	HighRiskEntities     prometheus.Gauge

	// Graph metrics
	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge

	// Registry-fetch metrics
	FetchRequestsTotal *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	FetchRetriesTotal  prometheus.Counter

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initAnalysisMetrics()
	r.initGraphMetrics()
	r.initFetchMetrics()

	return r
}

// PrometheusRegistry exposes the underlying registry for gathering.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}
