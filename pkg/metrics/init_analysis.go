package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysisRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellnet_analysis_runs_total",
			Help: "Total number of analysis runs by final status",
		},
		[]string{"status"},
	)

	r.AnalysisRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shellnet_analysis_run_duration_seconds",
			Help:    "Whole-run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	r.ComponentDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shellnet_component_duration_seconds",
			Help:    "Per-component duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 60.0},
		},
		[]string{"component"},
	)

	r.ComponentFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellnet_component_failures_total",
			Help: "Total partial failures by component",
		},
		[]string{"component"},
	)

	r.CyclesTruncatedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shellnet_cycles_truncated_total",
			Help: "Total runs where cycle enumeration hit the safety cap",
		},
	)

	r.PatternsDetected = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellnet_patterns_detected_total",
			Help: "Total risk patterns detected by type",
		},
		[]string{"type"},
	)

	r.HighRiskEntities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "shellnet_high_risk_entities",
			Help: "High-risk entity count from the most recent ranking",
		},
	)
}

func (r *Registry) initGraphMetrics() {
	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "shellnet_graph_nodes",
			Help: "Entity count of the analysed graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "shellnet_graph_edges",
			Help: "Typed edge count of the analysed graph",
		},
	)
}

func (r *Registry) initFetchMetrics() {
	r.FetchRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shellnet_registry_fetch_requests_total",
			Help: "Total registry API requests by resource and status",
		},
		[]string{"resource", "status"},
	)

	r.FetchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shellnet_registry_fetch_duration_seconds",
			Help:    "Registry API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
	)

	r.FetchRetriesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shellnet_registry_fetch_retries_total",
			Help: "Total retried registry API requests",
		},
	)
}
