package patterns

import "github.com/registryintel/shellnet/pkg/graph"

// RiskLevel tags the severity of a finding.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Pattern is one structured risk finding. Immutable once created: detectors
// build it and hand it off, consumers only read. Type-specific fields are
// optional and omitted from JSON when unset.
type Pattern struct {
	Type      string    `json:"type"`
	Entities  []string  `json:"entities"`
	RiskLevel RiskLevel `json:"risk_level"`

	// Hub-and-spoke findings
	Hub    string   `json:"hub,omitempty"`
	Spokes []string `json:"spokes,omitempty"`

	// Temporal findings
	Date             string   `json:"date,omitempty"`
	SharedAttributes []string `json:"shared_attributes,omitempty"`

	// Cycle findings
	Score float64 `json:"score,omitempty"`
}

// Involves reports whether the entity appears in the finding, including as a
// hub or spoke.
func (p *Pattern) Involves(id string) bool {
	if p.Hub == id {
		return true
	}
	for _, e := range p.Entities {
		if e == id {
			return true
		}
	}
	for _, s := range p.Spokes {
		if s == id {
			return true
		}
	}
	return false
}

// Detector produces risk-pattern records from a built relationship graph.
// The heuristics behind each implementation are deliberately pluggable; the
// analysis core only merges their output, it never validates their logic.
type Detector interface {
	Name() string
	Detect(g *graph.Graph) []Pattern
}

// Run executes a set of detectors and concatenates their findings in
// detector order.
func Run(g *graph.Graph, detectors ...Detector) []Pattern {
	var out []Pattern
	for _, d := range detectors {
		out = append(out, d.Detect(g)...)
	}
	return out
}
