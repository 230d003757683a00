package metrics

import "time"

// RecordAnalysisRun records a finished run under the given status
// ("ok", "partial" or "error").
func (r *Registry) RecordAnalysisRun(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.AnalysisRunsTotal.WithLabelValues(status).Inc()
	r.AnalysisRunDuration.Observe(duration.Seconds())
}

// RecordComponent records the duration of a single analysis component.
func (r *Registry) RecordComponent(component string, duration time.Duration) {
	if r == nil {
		return
	}
	r.ComponentDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// RecordComponentFailure records a partial failure for a component.
func (r *Registry) RecordComponentFailure(component string) {
	if r == nil {
		return
	}
	r.ComponentFailures.WithLabelValues(component).Inc()
}

// RecordCyclesTruncated records a run whose cycle search hit the cap.
func (r *Registry) RecordCyclesTruncated() {
	if r == nil {
		return
	}
	r.CyclesTruncatedTotal.Inc()
}

// RecordPatterns records detected patterns of one type.
func (r *Registry) RecordPatterns(patternType string, count int) {
	if r == nil || count <= 0 {
		return
	}
	r.PatternsDetected.WithLabelValues(patternType).Add(float64(count))
}

// SetHighRiskEntities publishes the high-risk count of the latest ranking.
func (r *Registry) SetHighRiskEntities(count int) {
	if r == nil {
		return
	}
	r.HighRiskEntities.Set(float64(count))
}

// SetGraphSize publishes node and typed-edge counts for the analysed graph.
func (r *Registry) SetGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
}

// RecordFetch records one registry API request.
func (r *Registry) RecordFetch(resource, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.FetchRequestsTotal.WithLabelValues(resource, status).Inc()
	r.FetchDuration.Observe(duration.Seconds())
}

// RecordFetchRetry records a retried registry API request.
func (r *Registry) RecordFetchRetry() {
	if r == nil {
		return
	}
	r.FetchRetriesTotal.Inc()
}
