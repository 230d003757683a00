package analytics

import (
	"sort"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/patterns"
)

// TemporalEngine finds clusters of entities incorporated on the same date
// that also share an attribute. This is a co-occurrence check, not a
// statistical one; coincidental overlap on crowded dates is a known
// limitation.
type TemporalEngine struct {
	g   *graph.Graph
	cfg config.Config
}

// NewTemporalEngine creates an engine over a built graph.
func NewTemporalEngine(g *graph.Graph, cfg config.Config) *TemporalEngine {
	return &TemporalEngine{g: g, cfg: cfg}
}

// Compute returns bulk-incorporation findings in date order.
func (e *TemporalEngine) Compute() []patterns.Pattern {
	groups := make(map[string][]string)
	for _, id := range e.g.Nodes() {
		date := e.g.Node(id).IncorporationDate
		if date == "" {
			continue
		}
		groups[date] = append(groups[date], id)
	}

	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var out []patterns.Pattern
	for _, date := range dates {
		members := groups[date]
		if len(members) < 3 {
			continue
		}
		shared := e.sharedAttributes(members)
		if len(shared) == 0 {
			continue
		}
		out = append(out, patterns.Pattern{
			Type:             "bulk_incorporation",
			Entities:         members,
			RiskLevel:        patterns.RiskHigh,
			Date:             date,
			SharedAttributes: shared,
		})
	}
	return out
}

// sharedAttributes lists attributes appearing across at least two of the
// group's members: director names and registered-address keys.
func (e *TemporalEngine) sharedAttributes(members []string) []string {
	directorCount := make(map[string]int)
	addressCount := make(map[string]int)

	for _, id := range members {
		node := e.g.Node(id)

		seen := make(map[string]bool)
		for i := range node.Directors {
			name := node.Directors[i].Key().Name
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			directorCount[name]++
		}

		if key := node.RegisteredOffice.Key(); key != "" {
			addressCount[key]++
		}
	}

	var shared []string
	for name, count := range directorCount {
		if count >= 2 {
			shared = append(shared, "director:"+name)
		}
	}
	for key, count := range addressCount {
		if count >= 2 {
			shared = append(shared, "address:"+key)
		}
	}
	sort.Strings(shared)
	return shared
}
