package patterns

import (
	"sort"
	"strings"

	"github.com/registryintel/shellnet/pkg/graph"
)

// UKAnalysis bundles jurisdiction-specific flags. The core never interprets
// these; a caller merges them into the combined report.
type UKAnalysis struct {
	ComplexStructures []string  `json:"complex_structures"`
	MinimalCompliance []string  `json:"minimal_compliance"`
	DissolvedSICCodes []string  `json:"dissolved_sic_overlap"`
	Patterns          []Pattern `json:"patterns"`
}

// UKComplianceAnalyzer applies Companies House specific heuristics: layered
// corporate PSC structures and minimal filing compliance.
type UKComplianceAnalyzer struct {
	// MinCorporatePSC is the corporate-PSC count treated as a layered
	// ownership structure. Defaults to 2.
	MinCorporatePSC int
	// MaxFilings is the filing count at or below which an active company
	// counts as minimally compliant. Defaults to 2.
	MaxFilings int
}

// Analyze runs the UK heuristics over the graph.
func (a *UKComplianceAnalyzer) Analyze(g *graph.Graph) UKAnalysis {
	minPSC := a.MinCorporatePSC
	if minPSC <= 0 {
		minPSC = 2
	}
	maxFilings := a.MaxFilings
	if maxFilings <= 0 {
		maxFilings = 2
	}

	analysis := UKAnalysis{}
	for _, id := range g.Nodes() {
		node := g.Node(id)

		corporate := 0
		for i := range node.PSC {
			if node.PSC[i].IsCorporate() {
				corporate++
			}
		}
		if corporate >= minPSC {
			analysis.ComplexStructures = append(analysis.ComplexStructures, id)
		}

		if strings.EqualFold(node.CompanyStatus, "active") && len(node.FilingHistory) <= maxFilings {
			analysis.MinimalCompliance = append(analysis.MinimalCompliance, id)
		}
	}

	sort.Strings(analysis.ComplexStructures)
	sort.Strings(analysis.MinimalCompliance)

	if len(analysis.ComplexStructures) > 0 {
		analysis.Patterns = append(analysis.Patterns, Pattern{
			Type:      "complex_ownership",
			Entities:  analysis.ComplexStructures,
			RiskLevel: RiskHigh,
		})
	}
	if len(analysis.MinimalCompliance) > 0 {
		analysis.Patterns = append(analysis.Patterns, Pattern{
			Type:      "minimal_compliance",
			Entities:  analysis.MinimalCompliance,
			RiskLevel: RiskMedium,
		})
	}
	return analysis
}
