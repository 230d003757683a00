package analytics

import (
	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/patterns"
)

// StructuralResult carries the structural findings for one graph snapshot.
type StructuralResult struct {
	Patterns []patterns.Pattern
	// SuspiciousCycles lists the entity sequences of cycles whose risk
	// score cleared the threshold, in discovery order.
	SuspiciousCycles [][]string
	// CyclesTruncated is set when enumeration hit the configured cap. The
	// findings collected up to the cap remain valid.
	CyclesTruncated bool
}

// StructuralEngine finds circular ownership, hub-and-spoke shapes and
// isolated subgroups.
type StructuralEngine struct {
	g      *graph.Graph
	snap   *snapshot
	cfg    config.Config
	logger logging.Logger
}

// NewStructuralEngine creates an engine over a built graph.
func NewStructuralEngine(g *graph.Graph, cfg config.Config, logger logging.Logger) *StructuralEngine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StructuralEngine{g: g, snap: newSnapshot(g), cfg: cfg, logger: logger}
}

// Compute runs all three detectors. Empty graphs produce empty results.
func (e *StructuralEngine) Compute() *StructuralResult {
	result := &StructuralResult{}
	if e.snap.n() == 0 {
		return result
	}

	e.detectCircularOwnership(result)
	e.detectHubSpoke(result)
	e.detectIsolatedSubgroups(result)
	return result
}

// typeWeight ranks relationship types by how strongly they indicate a
// deliberate control structure when they appear on a cycle.
func typeWeight(t graph.RelationshipType) float64 {
	switch t {
	case graph.Ownership, graph.Control:
		return 1.0
	case graph.SharedPSC:
		return 0.9
	case graph.SharedDirector:
		return 0.85
	case graph.SharedAddress:
		return 0.75
	default:
		return 0.8
	}
}

// cycleRisk scores a simple cycle in [0,1]: the mean over consecutive pairs
// of the best typed-edge contribution (typeWeight x strength), plus a small
// length bonus. Longer cycles of strong control edges are the classic
// layered-ownership shape.
func (e *StructuralEngine) cycleRisk(cycle []int) float64 {
	s := e.snap
	total := 0.0
	for i := range cycle {
		a := s.ids[cycle[i]]
		b := s.ids[cycle[(i+1)%len(cycle)]]
		best := 0.0
		for _, edge := range e.g.EdgesBetween(a, b) {
			if v := typeWeight(edge.Type) * edge.Strength; v > best {
				best = v
			}
		}
		total += best
	}
	score := total/float64(len(cycle)) + 0.02*float64(len(cycle)-3)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// detectCircularOwnership enumerates simple cycles and keeps those at or
// above CycleLengthMin whose risk clears the threshold. Enumeration is
// exponential in the worst case, so it is bounded by CycleLengthMax and
// MaxCycles; hitting the cap truncates with a condition instead of growing
// without bound.
func (e *StructuralEngine) detectCircularOwnership(result *StructuralResult) {
	s := e.snap
	n := s.n()

	count := 0
	truncated := false
	var emit func(cycle []int)
	emit = func(cycle []int) {
		count++
		score := e.cycleRisk(cycle)
		if score <= e.cfg.RiskThreshold {
			return
		}
		entities := make([]string, len(cycle))
		for i, idx := range cycle {
			entities[i] = s.ids[idx]
		}
		result.SuspiciousCycles = append(result.SuspiciousCycles, entities)
		result.Patterns = append(result.Patterns, patterns.Pattern{
			Type:      "circular_ownership",
			Entities:  entities,
			RiskLevel: patterns.RiskHigh,
			Score:     score,
		})
	}

	// Canonical simple-cycle DFS: every cycle is discovered exactly once,
	// anchored at its smallest node with the second node smaller than the
	// last to collapse the two traversal directions.
	path := make([]int, 0, e.cfg.CycleLengthMax)
	onPath := make([]bool, n)

	var dfs func(start, v int)
	dfs = func(start, v int) {
		for _, w := range s.neigh[v] {
			if truncated {
				return
			}
			if w == start && len(path) >= e.cfg.CycleLengthMin {
				if path[1] < path[len(path)-1] {
					if count >= e.cfg.MaxCycles {
						truncated = true
						return
					}
					emit(path)
				}
				continue
			}
			if w <= start || onPath[w] || len(path) >= e.cfg.CycleLengthMax {
				continue
			}
			path = append(path, w)
			onPath[w] = true
			dfs(start, w)
			onPath[w] = false
			path = path[:len(path)-1]
		}
	}

	for start := 0; start < n && !truncated; start++ {
		path = append(path[:0], start)
		onPath[start] = true
		dfs(start, start)
		onPath[start] = false
	}

	if truncated {
		result.CyclesTruncated = true
		e.logger.Warn("cycle enumeration truncated",
			logging.Int("max_cycles", e.cfg.MaxCycles),
			logging.Int("collected", len(result.SuspiciousCycles)))
	}
}

// detectHubSpoke reports nodes whose ownership/control edges fan out to a
// set of spokes that are otherwise unrelated to one another.
func (e *StructuralEngine) detectHubSpoke(result *StructuralResult) {
	for _, hub := range e.snap.ids {
		var spokes []string
		for _, neighbor := range e.g.Neighbors(hub) {
			for _, edge := range e.g.EdgesBetween(hub, neighbor) {
				if edge.Type == graph.Ownership || edge.Type == graph.Control {
					spokes = append(spokes, neighbor)
					break
				}
			}
		}
		if len(spokes) < e.cfg.HubMinSpokes {
			continue
		}
		if spokesRelated(e.g, spokes) {
			continue
		}
		entities := append([]string{hub}, spokes...)
		result.Patterns = append(result.Patterns, patterns.Pattern{
			Type:      "hub_spoke",
			Entities:  entities,
			RiskLevel: patterns.RiskMedium,
			Hub:       hub,
			Spokes:    spokes,
		})
	}
}

// spokesRelated reports whether any two spokes are directly connected.
func spokesRelated(g *graph.Graph, spokes []string) bool {
	for i := 0; i < len(spokes); i++ {
		for j := i + 1; j < len(spokes); j++ {
			if g.HasEdge(spokes[i], spokes[j]) {
				return true
			}
		}
	}
	return false
}

// detectIsolatedSubgroups reports small connected components with no edges
// to the rest of the graph. Singletons are not a subgroup.
func (e *StructuralEngine) detectIsolatedSubgroups(result *StructuralResult) {
	for _, comp := range e.snap.components() {
		if len(comp) < 2 || len(comp) > e.cfg.IsolatedMaxSize {
			continue
		}
		entities := make([]string, len(comp))
		for i, idx := range comp {
			entities[i] = e.snap.ids[idx]
		}
		result.Patterns = append(result.Patterns, patterns.Pattern{
			Type:      "isolated_subgroup",
			Entities:  entities,
			RiskLevel: patterns.RiskMedium,
		})
	}
}
