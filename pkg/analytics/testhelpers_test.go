package analytics

import (
	"math"
	"testing"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/parallel"
)

// buildGraph creates a graph from node IDs and typed edges.
func buildGraph(t *testing.T, nodes []string, edges ...graph.Edge) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range nodes {
		g.AddNode(&graph.Node{ID: id})
	}
	for _, e := range edges {
		if err := g.AddEdge(e.A, e.B, e.Type, e.Strength); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e.A, e.B, err)
		}
	}
	return g
}

func edge(a, b string, relType graph.RelationshipType, strength float64) graph.Edge {
	return graph.Edge{A: a, B: b, Type: relType, Strength: strength}
}

func newTestPool(t *testing.T) *parallel.WorkerPool {
	t.Helper()
	pool, err := parallel.NewWorkerPool(2)
	if err != nil {
		t.Fatalf("NewWorkerPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func computeCentrality(t *testing.T, g *graph.Graph) *CentralityResult {
	t.Helper()
	engine := NewCentralityEngine(g, config.Default(), newTestPool(t), logging.NewNopLogger())
	return engine.Compute()
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// pathGraph builds a chain a-b-c-... over shared_director edges.
func pathGraph(t *testing.T, ids ...string) *graph.Graph {
	t.Helper()
	edges := make([]graph.Edge, 0, len(ids)-1)
	for i := 0; i+1 < len(ids); i++ {
		edges = append(edges, edge(ids[i], ids[i+1], graph.SharedDirector, 0.7))
	}
	return buildGraph(t, ids, edges...)
}

// triangleGraph builds a 3-clique over the given relationship type.
func triangleGraph(t *testing.T, relType graph.RelationshipType, strength float64, ids ...string) *graph.Graph {
	t.Helper()
	return buildGraph(t, ids,
		edge(ids[0], ids[1], relType, strength),
		edge(ids[1], ids[2], relType, strength),
		edge(ids[0], ids[2], relType, strength),
	)
}
