package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/registryintel/shellnet/pkg/analytics"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/patterns"
)

// topEntityCount bounds the high-risk section of the text rendering.
const topEntityCount = 10

// RiskDistribution buckets analysed entities by flag weight. High means at
// least two risk factors or an anomaly score above the threshold, medium
// means exactly one factor, low is everything else.
type RiskDistribution struct {
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
	LowRisk    int `json:"low_risk"`
}

// Concern is one aggregated finding worth leading the report with.
type Concern struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Count    int    `json:"count,omitempty"`
	Details  string `json:"details"`
}

// Summary is the headline section of a report.
type Summary struct {
	TotalCompaniesAnalyzed int              `json:"total_companies_analyzed"`
	HighRiskCount          int              `json:"high_risk_count"`
	RiskDistribution       RiskDistribution `json:"risk_distribution"`
	MajorConcerns          []Concern        `json:"major_concerns"`
}

// RiskPatterns groups findings by origin.
type RiskPatterns struct {
	NetworkPatterns    []patterns.Pattern  `json:"network_patterns"`
	ShellPatterns      []patterns.Pattern  `json:"shell_patterns"`
	UKSpecificPatterns patterns.UKAnalysis `json:"uk_specific_patterns"`
}

// Metadata records when and over what the analysis ran.
type Metadata struct {
	ReportID          string    `json:"report_id"`
	RunID             string    `json:"run_id"`
	AnalysisDate      time.Time `json:"analysis_date"`
	CompaniesAnalyzed int       `json:"companies_analyzed"`
}

// Report is the combined output of one analysis run.
type Report struct {
	Summary           Summary                  `json:"summary"`
	HighRiskEntities  []analytics.RankedEntity `json:"high_risk_entities"`
	RiskPatterns      RiskPatterns             `json:"risk_patterns"`
	NetworkStatistics graph.Statistics         `json:"network_statistics"`
	SuspiciousCycles  [][]string               `json:"suspicious_cycles"`
	Conditions        []string                 `json:"conditions,omitempty"`
	Metadata          Metadata                 `json:"metadata"`
}

// Input collects everything a report is built from.
type Input struct {
	Metrics       *analytics.NetworkMetrics
	Ranked        []analytics.RankedEntity
	ShellPatterns []patterns.Pattern
	UKAnalysis    patterns.UKAnalysis
	Statistics    graph.Statistics
	// RiskThreshold is the anomaly cutoff used for the high bucket of the
	// risk distribution.
	RiskThreshold float64
}

// Build assembles a report from a finished run.
func Build(in Input) *Report {
	m := in.Metrics
	r := &Report{
		HighRiskEntities: in.Ranked,
		RiskPatterns: RiskPatterns{
			NetworkPatterns:    m.AllPatterns(),
			ShellPatterns:      in.ShellPatterns,
			UKSpecificPatterns: in.UKAnalysis,
		},
		NetworkStatistics: in.Statistics,
		SuspiciousCycles:  m.SuspiciousCycles,
		Conditions:        m.Conditions,
		Metadata: Metadata{
			ReportID:          uuid.NewString(),
			RunID:             m.RunID,
			AnalysisDate:      time.Now().UTC(),
			CompaniesAnalyzed: len(m.Nodes),
		},
	}
	r.Summary = Summary{
		TotalCompaniesAnalyzed: len(m.Nodes),
		HighRiskCount:          len(in.Ranked),
		RiskDistribution:       distribution(len(m.Nodes), in.Ranked, in.RiskThreshold),
		MajorConcerns:          majorConcerns(m, in.ShellPatterns, in.UKAnalysis),
	}
	return r
}

// distribution buckets the analysed population. Entities absent from the
// ranking carry no risk factors and land in the low bucket.
func distribution(total int, ranked []analytics.RankedEntity, threshold float64) RiskDistribution {
	if threshold <= 0 {
		threshold = analytics.DefaultRiskThreshold
	}
	var dist RiskDistribution
	for _, e := range ranked {
		switch {
		case len(e.RiskFactors) >= 2 || e.AnomalyScore > threshold:
			dist.HighRisk++
		case len(e.RiskFactors) == 1:
			dist.MediumRisk++
		}
	}
	dist.LowRisk = total - dist.HighRisk - dist.MediumRisk
	if dist.LowRisk < 0 {
		dist.LowRisk = 0
	}
	return dist
}

func majorConcerns(m *analytics.NetworkMetrics, shell []patterns.Pattern, uk patterns.UKAnalysis) []Concern {
	var concerns []Concern

	if len(m.SuspiciousCycles) > 0 {
		concerns = append(concerns, Concern{
			Type:     "circular_ownership",
			Severity: "high",
			Count:    len(m.SuspiciousCycles),
			Details:  "Detected circular ownership patterns",
		})
	}

	shellTypes := map[string]int{}
	for _, p := range shell {
		shellTypes[p.Type]++
	}
	if n := shellTypes["formation_pattern"]; n > 0 {
		concerns = append(concerns, Concern{
			Type:     "bulk_formation",
			Severity: "high",
			Count:    n,
			Details:  "Suspicious rapid formation of related companies",
		})
	}
	if n := shellTypes["nominee_director"]; n > 0 {
		concerns = append(concerns, Concern{
			Type:     "nominee_directors",
			Severity: "medium",
			Count:    n,
			Details:  "Individuals directing unusually many companies",
		})
	}

	if len(uk.ComplexStructures) > 0 {
		concerns = append(concerns, Concern{
			Type:     "complex_ownership",
			Severity: "high",
			Count:    len(uk.ComplexStructures),
			Details:  "Complex ownership structures detected",
		})
	}
	if len(uk.MinimalCompliance) > 0 {
		concerns = append(concerns, Concern{
			Type:     "compliance_issues",
			Severity: "medium",
			Count:    len(uk.MinimalCompliance),
			Details:  "Pattern of minimal compliance with filing requirements",
		})
	}
	return concerns
}

// RenderText renders the report for terminals and plain-text files.
func (r *Report) RenderText() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	section := func(title string) {
		line("")
		line("%s:", title)
		line("%s", strings.Repeat("-", 20))
	}

	line("Risk Analysis Report")
	line("%s", strings.Repeat("=", 50))

	section("Analysis Summary")
	line("Total Companies Analyzed: %d", r.Summary.TotalCompaniesAnalyzed)
	line("High Risk Entities: %d", r.Summary.HighRiskCount)

	section("Risk Distribution")
	line("High Risk: %d", r.Summary.RiskDistribution.HighRisk)
	line("Medium Risk: %d", r.Summary.RiskDistribution.MediumRisk)
	line("Low Risk: %d", r.Summary.RiskDistribution.LowRisk)

	section("Major Concerns")
	for _, c := range r.Summary.MajorConcerns {
		line("Type: %s", c.Type)
		line("Severity: %s", c.Severity)
		line("Details: %s", c.Details)
		line("")
	}

	section("Network Statistics")
	line("Total Connections: %d", r.NetworkStatistics.EdgeCount)
	line("Network Density: %.3f", r.NetworkStatistics.Density)
	line("Average Connections per Company: %.2f", r.NetworkStatistics.AverageDegree)
	for _, relType := range sortedEdgeTypes(r.NetworkStatistics.EdgeTypeCounts) {
		line("  %s: %d", relType, r.NetworkStatistics.EdgeTypeCounts[relType])
	}

	section("High Risk Entities")
	top := r.HighRiskEntities
	if len(top) > topEntityCount {
		top = top[:topEntityCount]
	}
	for _, e := range top {
		line("Company Number: %s", e.Entity)
		line("Risk Score: %.2f", e.AnomalyScore)
		line("Risk Factors: %s", strings.Join(e.RiskFactors, ", "))
		line("")
	}

	return b.String()
}

func sortedEdgeTypes(counts map[graph.RelationshipType]int) []graph.RelationshipType {
	types := make([]graph.RelationshipType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// WriteJSON writes the full report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
