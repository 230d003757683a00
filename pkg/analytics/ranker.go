package analytics

import (
	"sort"

	"github.com/registryintel/shellnet/pkg/patterns"
)

// Risk factor names attached to ranked entities.
const (
	FactorHighBetweenness   = "high_betweenness_centrality"
	FactorHighPageRank      = "high_pagerank"
	FactorIsolatedCommunity = "isolated_community"
	FactorHighAnomaly       = "high_anomaly_score"
)

// DefaultRiskThreshold applies when a caller passes a non-positive
// threshold to GetHighRiskEntities.
const DefaultRiskThreshold = 0.8

// isolatedCommunityMax is the largest community size still counted as
// isolated for ranking purposes.
const isolatedCommunityMax = 3

// RankedEntity is one entity flagged by the ranking pass, with the reasons
// it was flagged and the scores backing them.
type RankedEntity struct {
	Entity           string   `json:"entity"`
	RiskFactors      []string `json:"risk_factors"`
	AnomalyScore     float64  `json:"anomaly_score"`
	CentralityScores Scores   `json:"centrality_scores"`
}

// GetHighRiskEntities ranks the entities of a finished run. An entity is
// included when at least one risk factor applies: betweenness, pagerank or
// anomaly score above the threshold, membership in a community smaller than
// three entities, or involvement in a detected pattern. The result is sorted
// by anomaly score descending, with ties broken by canonical node order. The
// input bundle is never mutated.
func GetHighRiskEntities(m *NetworkMetrics, threshold float64) []RankedEntity {
	if m == nil {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}

	allPatterns := m.AllPatterns()
	ranked := make([]RankedEntity, 0)
	for _, id := range m.Nodes {
		factors := entityFactors(m, allPatterns, id, threshold)
		if len(factors) == 0 {
			continue
		}
		ranked = append(ranked, RankedEntity{
			Entity:           id,
			RiskFactors:      factors,
			AnomalyScore:     m.AnomalyScores[id],
			CentralityScores: m.CentralityScores[id],
		})
	}

	// Nodes is already canonical, so a stable sort keeps tie order
	// deterministic across runs.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AnomalyScore > ranked[j].AnomalyScore
	})
	return ranked
}

func entityFactors(m *NetworkMetrics, allPatterns []patterns.Pattern, id string, threshold float64) []string {
	var factors []string

	scores, scored := m.CentralityScores[id]
	if scored && scores.Betweenness > threshold {
		factors = append(factors, FactorHighBetweenness)
	}
	if scored && scores.PageRank > threshold {
		factors = append(factors, FactorHighPageRank)
	}
	if size := m.CommunitySize(id); size > 0 && size < isolatedCommunityMax {
		factors = append(factors, FactorIsolatedCommunity)
	}

	seen := map[string]bool{}
	for _, p := range allPatterns {
		if seen[p.Type] || !p.Involves(id) {
			continue
		}
		seen[p.Type] = true
		factors = append(factors, "involved_in_"+p.Type)
	}

	if m.AnomalyScores[id] > threshold {
		factors = append(factors, FactorHighAnomaly)
	}
	return factors
}
