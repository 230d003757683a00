package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, r *Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := r.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

func TestRegistry_RecordAnalysisRun(t *testing.T) {
	r := NewRegistry()
	r.RecordAnalysisRun("ok", 250*time.Millisecond)
	r.RecordAnalysisRun("ok", 500*time.Millisecond)
	r.RecordAnalysisRun("partial", time.Second)

	f := gatherFamily(t, r, "shellnet_analysis_runs_total")
	total := 0.0
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	if total != 3 {
		t.Errorf("expected 3 runs recorded, got %v", total)
	}

	h := gatherFamily(t, r, "shellnet_analysis_run_duration_seconds")
	if got := h.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("expected 3 duration samples, got %d", got)
	}
}

func TestRegistry_ComponentFailures(t *testing.T) {
	r := NewRegistry()
	r.RecordComponentFailure("centrality")
	r.RecordComponentFailure("centrality")
	r.RecordComponentFailure("anomaly")

	f := gatherFamily(t, r, "shellnet_component_failures_total")
	byComponent := map[string]float64{}
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "component" {
				byComponent[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if byComponent["centrality"] != 2 {
		t.Errorf("centrality failures = %v, want 2", byComponent["centrality"])
	}
	if byComponent["anomaly"] != 1 {
		t.Errorf("anomaly failures = %v, want 1", byComponent["anomaly"])
	}
}

func TestRegistry_GraphGauges(t *testing.T) {
	r := NewRegistry()
	r.SetGraphSize(42, 99)

	nodes := gatherFamily(t, r, "shellnet_graph_nodes")
	if got := nodes.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("graph nodes gauge = %v, want 42", got)
	}
	edges := gatherFamily(t, r, "shellnet_graph_edges")
	if got := edges.GetMetric()[0].GetGauge().GetValue(); got != 99 {
		t.Errorf("graph edges gauge = %v, want 99", got)
	}
}

func TestRegistry_PatternsDetected(t *testing.T) {
	r := NewRegistry()
	r.RecordPatterns("circular_ownership", 3)
	r.RecordPatterns("hub_spoke", 0)

	f := gatherFamily(t, r, "shellnet_patterns_detected_total")
	if len(f.GetMetric()) != 1 {
		t.Fatalf("expected only non-zero pattern counts, got %d series", len(f.GetMetric()))
	}
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("circular_ownership count = %v, want 3", got)
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	r.RecordAnalysisRun("ok", time.Second)
	r.RecordComponent("centrality", time.Second)
	r.RecordComponentFailure("anomaly")
	r.RecordCyclesTruncated()
	r.RecordPatterns("hub_spoke", 1)
	r.SetHighRiskEntities(1)
	r.SetGraphSize(1, 1)
	r.RecordFetch("profile", "ok", time.Second)
	r.RecordFetchRetry()
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry should return the same instance")
	}
}
