package analytics

import (
	"github.com/registryintel/shellnet/pkg/patterns"
)

// Run conditions reported on a NetworkMetrics bundle. Conditions are
// non-fatal: the run completed, with a caveat worth surfacing.
const (
	ConditionCyclesTruncated       = "cycles_truncated"
	ConditionEigenvectorBestEffort = "eigenvector_not_converged"
	ConditionAnomalyEuclidean      = "anomaly_fallback_euclidean"
)

// Component names used in ComponentErrors and telemetry labels.
const (
	ComponentCentrality = "centrality"
	ComponentCommunity  = "community"
	ComponentStructural = "structural"
	ComponentTemporal   = "temporal"
	ComponentAnomaly    = "anomaly"
)

// NetworkMetrics is the immutable bundle of one analysis run. Every entity
// present in the graph has an entry in CentralityScores, CommunityMembership
// and AnomalyScores unless the producing component is listed in
// ComponentErrors. Pattern slices may be empty. Consumers only read.
type NetworkMetrics struct {
	// RunID uniquely identifies this analysis run.
	RunID string `json:"run_id"`
	// Nodes is the canonical entity order of the analysed graph, used by
	// consumers for stable truncation and tie-breaking.
	Nodes []string `json:"-"`

	CentralityScores    map[string]Scores  `json:"centrality_scores"`
	CommunityMembership map[string]int     `json:"community_membership"`
	CommunitySizes      map[int]int        `json:"-"`
	RiskPatterns        []patterns.Pattern `json:"risk_patterns"`
	TemporalPatterns    []patterns.Pattern `json:"temporal_patterns"`
	SuspiciousCycles    [][]string         `json:"suspicious_cycles"`
	AnomalyScores       map[string]float64 `json:"anomaly_scores"`

	// Conditions lists non-fatal caveats (see Condition* constants).
	Conditions []string `json:"conditions,omitempty"`
	// ComponentErrors records partial failures: the named component's
	// outputs are empty, the siblings' outputs remain valid.
	ComponentErrors map[string]error `json:"-"`
}

// CommunitySize returns the size of the entity's consensus community.
func (m *NetworkMetrics) CommunitySize(id string) int {
	label, ok := m.CommunityMembership[id]
	if !ok {
		return 0
	}
	return m.CommunitySizes[label]
}

// AllPatterns returns structural and temporal findings as one slice.
func (m *NetworkMetrics) AllPatterns() []patterns.Pattern {
	out := make([]patterns.Pattern, 0, len(m.RiskPatterns)+len(m.TemporalPatterns))
	out = append(out, m.RiskPatterns...)
	out = append(out, m.TemporalPatterns...)
	return out
}

// HasCondition reports whether the run recorded the named condition.
func (m *NetworkMetrics) HasCondition(name string) bool {
	for _, c := range m.Conditions {
		if c == name {
			return true
		}
	}
	return false
}
