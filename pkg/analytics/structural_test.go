package analytics

import (
	"testing"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/patterns"
)

func computeStructural(t *testing.T, g *graph.Graph, cfg config.Config) *StructuralResult {
	t.Helper()
	return NewStructuralEngine(g, cfg, logging.NewNopLogger()).Compute()
}

func patternsOfType(result *StructuralResult, patternType string) []patterns.Pattern {
	var out []patterns.Pattern
	for _, p := range result.Patterns {
		if p.Type == patternType {
			out = append(out, p)
		}
	}
	return out
}

func TestStructural_OwnershipTriangleIsSuspicious(t *testing.T) {
	g := triangleGraph(t, graph.Ownership, 0.8, "a", "b", "c")
	result := computeStructural(t, g, config.Default())

	if len(result.SuspiciousCycles) != 1 {
		t.Fatalf("SuspiciousCycles = %v, want exactly one", result.SuspiciousCycles)
	}
	if len(result.SuspiciousCycles[0]) != 3 {
		t.Errorf("cycle length = %d, want 3", len(result.SuspiciousCycles[0]))
	}

	found := patternsOfType(result, "circular_ownership")
	if len(found) != 1 {
		t.Fatalf("circular_ownership patterns = %d, want 1", len(found))
	}
	// ownership at strength 0.8 scores exactly 0.8, above the 0.75 threshold
	if !approxEqual(found[0].Score, 0.8, 1e-9) {
		t.Errorf("Score = %v, want 0.8", found[0].Score)
	}
	if found[0].RiskLevel != patterns.RiskHigh {
		t.Errorf("RiskLevel = %v, want high", found[0].RiskLevel)
	}
}

func TestStructural_AddressTriangleIsNot(t *testing.T) {
	// shared_address contributes 0.75 * 0.6 = 0.45 per step, far below threshold
	g := triangleGraph(t, graph.SharedAddress, 0.6, "a", "b", "c")
	result := computeStructural(t, g, config.Default())

	if len(result.SuspiciousCycles) != 0 {
		t.Errorf("SuspiciousCycles = %v, want none", result.SuspiciousCycles)
	}
}

func TestStructural_CycleReportedOnce(t *testing.T) {
	// square of ownership edges: one 4-cycle, reported exactly once despite
	// eight possible traversals
	g := buildGraph(t, []string{"a", "b", "c", "d"},
		edge("a", "b", graph.Ownership, 0.9),
		edge("b", "c", graph.Ownership, 0.9),
		edge("c", "d", graph.Ownership, 0.9),
		edge("d", "a", graph.Ownership, 0.9),
	)
	result := computeStructural(t, g, config.Default())

	if len(result.SuspiciousCycles) != 1 {
		t.Fatalf("SuspiciousCycles = %v, want exactly one", result.SuspiciousCycles)
	}
	// mean 0.9 plus 0.02 length bonus for a 4-cycle
	found := patternsOfType(result, "circular_ownership")
	if !approxEqual(found[0].Score, 0.92, 1e-9) {
		t.Errorf("Score = %v, want 0.92", found[0].Score)
	}
}

func TestStructural_CycleLengthBounds(t *testing.T) {
	// 10-cycle exceeds the default CycleLengthMax of 8
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	edges := make([]graph.Edge, 0, len(ids))
	for i := range ids {
		edges = append(edges, edge(ids[i], ids[(i+1)%len(ids)], graph.Ownership, 0.9))
	}
	g := buildGraph(t, ids, edges...)
	result := computeStructural(t, g, config.Default())

	if len(result.SuspiciousCycles) != 0 {
		t.Errorf("SuspiciousCycles = %v, want none beyond CycleLengthMax", result.SuspiciousCycles)
	}
	if result.CyclesTruncated {
		t.Error("length-bounded search is not truncation")
	}
}

func TestStructural_CycleTruncation(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "x", "y", "z"},
		edge("a", "b", graph.Ownership, 0.8),
		edge("b", "c", graph.Ownership, 0.8),
		edge("a", "c", graph.Ownership, 0.8),
		edge("x", "y", graph.Ownership, 0.8),
		edge("y", "z", graph.Ownership, 0.8),
		edge("x", "z", graph.Ownership, 0.8),
	)
	cfg := config.Default()
	cfg.MaxCycles = 1
	result := computeStructural(t, g, cfg)

	if !result.CyclesTruncated {
		t.Error("expected truncation at max_cycles 1 with two cycles present")
	}
	if len(result.SuspiciousCycles) != 1 {
		t.Errorf("SuspiciousCycles = %v, want the one cycle collected before the cap", result.SuspiciousCycles)
	}
}

func TestStructural_HubSpoke(t *testing.T) {
	g := buildGraph(t, []string{"hub", "s1", "s2", "s3"},
		edge("hub", "s1", graph.Ownership, 0.8),
		edge("hub", "s2", graph.Control, 0.8),
		edge("hub", "s3", graph.Ownership, 0.8),
	)
	result := computeStructural(t, g, config.Default())

	found := patternsOfType(result, "hub_spoke")
	if len(found) != 1 {
		t.Fatalf("hub_spoke patterns = %d, want 1", len(found))
	}
	p := found[0]
	if p.Hub != "hub" {
		t.Errorf("Hub = %q, want hub", p.Hub)
	}
	if len(p.Spokes) != 3 {
		t.Errorf("Spokes = %v, want 3 spokes", p.Spokes)
	}
	if len(p.Entities) != 4 {
		t.Errorf("Entities = %v, want hub plus spokes", p.Entities)
	}
	if p.RiskLevel != patterns.RiskMedium {
		t.Errorf("RiskLevel = %v, want medium", p.RiskLevel)
	}
}

func TestStructural_HubSpokeRequiresUnrelatedSpokes(t *testing.T) {
	g := buildGraph(t, []string{"hub", "s1", "s2", "s3"},
		edge("hub", "s1", graph.Ownership, 0.8),
		edge("hub", "s2", graph.Ownership, 0.8),
		edge("hub", "s3", graph.Ownership, 0.8),
		edge("s1", "s2", graph.SharedAddress, 0.6),
	)
	result := computeStructural(t, g, config.Default())

	if found := patternsOfType(result, "hub_spoke"); len(found) != 0 {
		t.Errorf("connected spokes should suppress the finding, got %v", found)
	}
}

func TestStructural_HubSpokeIgnoresWeakEdgeTypes(t *testing.T) {
	// shared_director fan-out is not a hub-and-spoke control structure
	g := buildGraph(t, []string{"hub", "s1", "s2", "s3"},
		edge("hub", "s1", graph.SharedDirector, 0.7),
		edge("hub", "s2", graph.SharedDirector, 0.7),
		edge("hub", "s3", graph.SharedDirector, 0.7),
	)
	result := computeStructural(t, g, config.Default())

	if found := patternsOfType(result, "hub_spoke"); len(found) != 0 {
		t.Errorf("expected no hub_spoke over shared_director edges, got %v", found)
	}
}

func TestStructural_IsolatedSubgroups(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "p", "q", "r", "w", "x", "y", "z", "lone"},
		// pair
		edge("a", "b", graph.SharedAddress, 0.6),
		// triple
		edge("p", "q", graph.SharedDirector, 0.7),
		edge("q", "r", graph.SharedDirector, 0.7),
		// quad, above the default IsolatedMaxSize of 3
		edge("w", "x", graph.SharedDirector, 0.7),
		edge("x", "y", graph.SharedDirector, 0.7),
		edge("y", "z", graph.SharedDirector, 0.7),
	)
	result := computeStructural(t, g, config.Default())

	found := patternsOfType(result, "isolated_subgroup")
	if len(found) != 2 {
		t.Fatalf("isolated_subgroup patterns = %d, want 2 (pair and triple)", len(found))
	}
	sizes := map[int]bool{}
	for _, p := range found {
		sizes[len(p.Entities)] = true
		for _, e := range p.Entities {
			if e == "lone" || e == "w" {
				t.Errorf("entity %s should not be in an isolated subgroup", e)
			}
		}
	}
	if !sizes[2] || !sizes[3] {
		t.Errorf("subgroup sizes = %v, want {2, 3}", sizes)
	}
}

func TestStructural_EmptyGraph(t *testing.T) {
	result := computeStructural(t, buildGraph(t, nil), config.Default())
	if len(result.Patterns) != 0 || len(result.SuspiciousCycles) != 0 || result.CyclesTruncated {
		t.Errorf("empty graph result = %+v, want empty", result)
	}
}

func TestTypeWeight_Ordering(t *testing.T) {
	if typeWeight(graph.Ownership) != 1.0 || typeWeight(graph.Control) != 1.0 {
		t.Error("ownership and control carry full weight")
	}
	if !(typeWeight(graph.SharedPSC) > typeWeight(graph.SharedDirector)) {
		t.Error("shared_psc should outweigh shared_director")
	}
	if !(typeWeight(graph.SharedDirector) > typeWeight(graph.SharedAddress)) {
		t.Error("shared_director should outweigh shared_address")
	}
	if typeWeight(graph.RelationshipType("custom")) != 0.8 {
		t.Errorf("unknown type weight = %v, want 0.8", typeWeight(graph.RelationshipType("custom")))
	}
}
