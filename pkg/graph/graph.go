package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/registryintel/shellnet/pkg/entity"
)

// RelationshipType classifies an inferred relationship between two entities.
type RelationshipType string

const (
	SharedDirector RelationshipType = "shared_director"
	SharedAddress  RelationshipType = "shared_address"
	SharedPSC      RelationshipType = "shared_psc"
	Ownership      RelationshipType = "ownership"
	Control        RelationshipType = "control"
)

// Common sentinel errors
var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrSelfEdge        = errors.New("edge endpoints must be distinct")
	ErrInvalidStrength = errors.New("edge strength must be in [0,1]")
)

// Node is one entity in the relationship graph. Attributes are set once at
// build time and treated as read-only by every analytics component.
type Node struct {
	ID                string
	IncorporationDate string
	CompanyType       string
	CompanyStatus     string
	SICCodes          []string
	RegisteredOffice  *entity.RegisteredOffice
	Directors         []entity.Officer
	PSC               []entity.PSC
	FilingHistory     []entity.Filing
}

// Edge is one undirected typed relationship between two distinct entities.
// Multiple edges with different types may connect the same pair.
type Edge struct {
	A        string
	B        string
	Type     RelationshipType
	Strength float64
}

// pairKey is the unordered endpoint pair, normalised so A < B lexically.
type pairKey struct {
	a, b string
}

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Graph is an undirected weighted multigraph over entity identifiers. Nodes
// keep insertion order, which is the canonical iteration order every
// downstream consumer relies on for stable output.
type Graph struct {
	nodes map[string]*Node
	order []string       // canonical node order (insertion)
	index map[string]int // node ID -> position in order

	// adjacency: node -> neighbour IDs in first-seen order
	adjacency map[string][]string
	// typed edges per unordered pair, keyed by relationship type
	edges map[pairKey]map[RelationshipType]Edge

	edgeCount int
}

// New creates an empty relationship graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		index:     make(map[string]int),
		adjacency: make(map[string][]string),
		edges:     make(map[pairKey]map[RelationshipType]Edge),
	}
}

// AddNode inserts a node. Re-adding an existing ID is a no-op so the same
// entity can never appear twice.
func (g *Graph) AddNode(node *Node) {
	if node == nil || node.ID == "" {
		return
	}
	if _, exists := g.nodes[node.ID]; exists {
		return
	}
	g.nodes[node.ID] = node
	g.index[node.ID] = len(g.order)
	g.order = append(g.order, node.ID)
}

// AddEdge inserts an undirected typed edge between two existing distinct
// nodes. Adding the same (pair, type) again keeps the stronger strength, so
// edge insertion is idempotent and order-independent.
func (g *Graph) AddEdge(a, b string, relType RelationshipType, strength float64) error {
	if a == b {
		return fmt.Errorf("%w: %s", ErrSelfEdge, a)
	}
	if strength < 0 || strength > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidStrength, strength)
	}
	if _, ok := g.nodes[a]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, a)
	}
	if _, ok := g.nodes[b]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, b)
	}

	key := newPairKey(a, b)
	typed, exists := g.edges[key]
	if !exists {
		typed = make(map[RelationshipType]Edge)
		g.edges[key] = typed
		g.adjacency[a] = append(g.adjacency[a], b)
		g.adjacency[b] = append(g.adjacency[b], a)
	}

	if prev, ok := typed[relType]; ok {
		if strength > prev.Strength {
			prev.Strength = strength
			typed[relType] = prev
		}
		return nil
	}

	typed[relType] = Edge{A: key.a, B: key.b, Type: relType, Strength: strength}
	g.edgeCount++
	return nil
}

// HasNode reports whether the entity is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for an entity ID, or nil when absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Nodes returns entity IDs in canonical (insertion) order. The slice is a
// copy; callers may not reach the internal ordering.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Index returns the canonical position of a node, or -1 when absent.
func (g *Graph) Index(id string) int {
	pos, ok := g.index[id]
	if !ok {
		return -1
	}
	return pos
}

// Neighbors returns the IDs adjacent to a node, in first-connected order.
func (g *Graph) Neighbors(id string) []string {
	adj := g.adjacency[id]
	out := make([]string, len(adj))
	copy(out, adj)
	return out
}

// Degree returns the number of distinct neighbours of a node.
func (g *Graph) Degree(id string) int {
	return len(g.adjacency[id])
}

// EdgesBetween returns the parallel typed edges between a pair, ordered by
// relationship type for determinism. Empty when the pair is not connected.
func (g *Graph) EdgesBetween(a, b string) []Edge {
	typed, ok := g.edges[newPairKey(a, b)]
	if !ok {
		return nil
	}
	return sortTyped(typed)
}

// HasEdge reports whether any typed edge connects the pair.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.edges[newPairKey(a, b)]
	return ok
}

// Weight is the scalar-weight view required by algorithms that want a plain
// weighted graph: the maximum strength over the pair's typed edges. The
// typed edges themselves are never discarded.
func (g *Graph) Weight(a, b string) float64 {
	typed, ok := g.edges[newPairKey(a, b)]
	if !ok {
		return 0
	}
	max := 0.0
	for _, e := range typed {
		if e.Strength > max {
			max = e.Strength
		}
	}
	return max
}

// WeightSum is the additive scalar view: the sum of strengths over the
// pair's typed edges, accumulated in fixed relationship-type order so the
// result is bit-stable across runs. Used for density-style aggregates.
func (g *Graph) WeightSum(a, b string) float64 {
	typed, ok := g.edges[newPairKey(a, b)]
	if !ok {
		return 0
	}
	sum := 0.0
	for _, e := range sortTyped(typed) {
		sum += e.Strength
	}
	return sum
}

// Edges returns every typed edge, pairs in canonical endpoint order. Useful
// for whole-graph statistics and tests over the edge set.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edgeCount)
	for _, a := range g.order {
		for _, b := range g.adjacency[a] {
			key := newPairKey(a, b)
			if key.a != a {
				continue // visit each unordered pair once, from its smaller endpoint
			}
			out = append(out, sortTyped(g.edges[key])...)
		}
	}
	return out
}

// NodeCount returns the number of entities in the graph.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of typed edges (parallel edges counted
// individually).
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// ConnectedPairCount returns the number of connected unordered pairs.
func (g *Graph) ConnectedPairCount() int {
	return len(g.edges)
}

// Statistics summarises graph shape for reporting.
type Statistics struct {
	NodeCount      int                      `json:"node_count"`
	EdgeCount      int                      `json:"edge_count"`
	Density        float64                  `json:"density"`
	AverageDegree  float64                  `json:"average_degree"`
	EdgeTypeCounts map[RelationshipType]int `json:"edge_type_counts"`
}

// GetStatistics computes summary statistics over the current graph.
func (g *Graph) GetStatistics() Statistics {
	stats := Statistics{
		NodeCount:      len(g.order),
		EdgeCount:      g.edgeCount,
		EdgeTypeCounts: make(map[RelationshipType]int),
	}
	for _, typed := range g.edges {
		for relType := range typed {
			stats.EdgeTypeCounts[relType]++
		}
	}
	n := float64(stats.NodeCount)
	if n > 1 {
		stats.Density = 2 * float64(len(g.edges)) / (n * (n - 1))
		total := 0
		for _, adj := range g.adjacency {
			total += len(adj)
		}
		stats.AverageDegree = float64(total) / n
	}
	return stats
}

// sortTyped flattens a typed-edge map in fixed relationship-type order.
func sortTyped(typed map[RelationshipType]Edge) []Edge {
	order := []RelationshipType{SharedDirector, SharedAddress, SharedPSC, Ownership, Control}
	out := make([]Edge, 0, len(typed))
	for _, relType := range order {
		if e, ok := typed[relType]; ok {
			out = append(out, e)
		}
	}
	// any custom types appended after the known ones, sorted by name
	if len(out) != len(typed) {
		known := make(map[RelationshipType]bool, len(order))
		for _, relType := range order {
			known[relType] = true
		}
		var rest []Edge
		for relType, e := range typed {
			if !known[relType] {
				rest = append(rest, e)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i].Type < rest[j].Type })
		out = append(out, rest...)
	}
	return out
}
