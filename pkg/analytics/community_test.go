package analytics

import (
	"testing"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
)

func computeCommunities(t *testing.T, g *graph.Graph) *CommunityResult {
	t.Helper()
	engine := NewCommunityEngine(g, config.Default(), logging.NewNopLogger())
	return engine.Compute()
}

// twoTriangles builds two 3-cliques joined by a single bridge edge c-d.
func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	return buildGraph(t, []string{"a", "b", "c", "d", "e", "f"},
		edge("a", "b", "shared_director", 0.7),
		edge("b", "c", "shared_director", 0.7),
		edge("a", "c", "shared_director", 0.7),
		edge("d", "e", "shared_director", 0.7),
		edge("e", "f", "shared_director", 0.7),
		edge("d", "f", "shared_director", 0.7),
		edge("c", "d", "shared_director", 0.7),
	)
}

func TestCommunity_TwoTrianglesSplit(t *testing.T) {
	result := computeCommunities(t, twoTriangles(t))

	left := result.Assignments["a"]
	right := result.Assignments["d"]
	if left == right {
		t.Fatal("bridged triangles should land in different communities")
	}
	for _, id := range []string{"a", "b", "c"} {
		if result.Assignments[id] != left {
			t.Errorf("Assignments[%s] = %d, want %d", id, result.Assignments[id], left)
		}
	}
	for _, id := range []string{"d", "e", "f"} {
		if result.Assignments[id] != right {
			t.Errorf("Assignments[%s] = %d, want %d", id, result.Assignments[id], right)
		}
	}
	if result.Sizes[left] != 3 || result.Sizes[right] != 3 {
		t.Errorf("Sizes = %v, want two communities of 3", result.Sizes)
	}
}

func TestCommunity_CanonicalLabels(t *testing.T) {
	result := computeCommunities(t, twoTriangles(t))

	// a community's label is its first member's canonical index
	if result.Assignments["a"] != 0 {
		t.Errorf("first community label = %d, want 0", result.Assignments["a"])
	}
	if result.Assignments["d"] != 3 {
		t.Errorf("second community label = %d, want 3", result.Assignments["d"])
	}
}

func TestCommunity_DisconnectedComponents(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "x", "y", "lone"},
		edge("a", "b", "shared_director", 0.7),
		edge("x", "y", "shared_address", 0.6),
	)
	result := computeCommunities(t, g)

	if result.Assignments["a"] != result.Assignments["b"] {
		t.Error("connected pair should share a community")
	}
	if result.Assignments["a"] == result.Assignments["x"] {
		t.Error("disconnected components must not share a community")
	}
	if result.SizeOf("lone") != 1 {
		t.Errorf("SizeOf(lone) = %d, want 1", result.SizeOf("lone"))
	}
	if result.SizeOf("unknown") != 0 {
		t.Errorf("SizeOf(unknown) = %d, want 0", result.SizeOf("unknown"))
	}
}

func TestCommunity_SingleClique(t *testing.T) {
	result := computeCommunities(t, triangleGraph(t, "shared_psc", 0.8, "a", "b", "c"))

	label := result.Assignments["a"]
	for _, id := range []string{"b", "c"} {
		if result.Assignments[id] != label {
			t.Errorf("clique split apart: %v", result.Assignments)
		}
	}
	if result.Sizes[label] != 3 {
		t.Errorf("Sizes[%d] = %d, want 3", label, result.Sizes[label])
	}
}

func TestCommunity_EmptyGraph(t *testing.T) {
	result := computeCommunities(t, buildGraph(t, nil))
	if len(result.Assignments) != 0 || len(result.Sizes) != 0 {
		t.Errorf("empty graph result = %+v, want empty maps", result)
	}
}

func TestCommunity_DeterministicAcrossRuns(t *testing.T) {
	g := twoTriangles(t)
	first := computeCommunities(t, g)
	second := computeCommunities(t, g)

	for id, label := range first.Assignments {
		if second.Assignments[id] != label {
			t.Errorf("Assignments[%s] differs across runs: %d vs %d", id, label, second.Assignments[id])
		}
	}
}

func TestCommunity_DivisiveLimitFallsBackToModularity(t *testing.T) {
	cfg := config.Default()
	cfg.DivisiveNodeLimit = 1 // force the fallback path

	engine := NewCommunityEngine(twoTriangles(t), cfg, logging.NewNopLogger())
	result := engine.Compute()

	// consensus still splits the triangles, just without the divisive pass
	if result.Assignments["a"] == result.Assignments["d"] {
		t.Error("modularity stand-in should still split bridged triangles")
	}
}

func TestVote_Precedence(t *testing.T) {
	tests := []struct {
		name           string
		mod, prop, div int
		want           int
	}{
		{"all agree", 1, 1, 1, 1},
		{"two against modularity", 1, 2, 2, 2},
		{"all differ falls to modularity", 1, 2, 3, 1},
		{"modularity plus one", 1, 1, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vote(tt.mod, tt.prop, tt.div); got != tt.want {
				t.Errorf("vote(%d, %d, %d) = %d, want %d", tt.mod, tt.prop, tt.div, got, tt.want)
			}
		})
	}
}
