package analytics

import "github.com/registryintel/shellnet/pkg/graph"

// snapshot is a compact index-based view of the graph built once per
// analysis run. Algorithms traverse integer indices instead of string IDs;
// the canonical node order is preserved so results are reproducible.
type snapshot struct {
	g     *graph.Graph
	ids   []string
	index map[string]int
	neigh [][]int // adjacency by index, in the graph's deterministic order
}

func newSnapshot(g *graph.Graph) *snapshot {
	ids := g.Nodes()
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	neigh := make([][]int, len(ids))
	for i, id := range ids {
		neighbors := g.Neighbors(id)
		row := make([]int, 0, len(neighbors))
		for _, n := range neighbors {
			row = append(row, index[n])
		}
		neigh[i] = row
	}
	return &snapshot{g: g, ids: ids, index: index, neigh: neigh}
}

func (s *snapshot) n() int { return len(s.ids) }

// weight returns the scalar-weight view between two indices.
func (s *snapshot) weight(i, j int) float64 {
	return s.g.Weight(s.ids[i], s.ids[j])
}

// components returns connected components as index slices, ordered by first
// (canonical) member.
func (s *snapshot) components() [][]int {
	visited := make([]bool, s.n())
	var comps [][]int
	for start := 0; start < s.n(); start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		comp := []int{start}
		for head := 0; head < len(comp); head++ {
			for _, next := range s.neigh[comp[head]] {
				if !visited[next] {
					visited[next] = true
					comp = append(comp, next)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}
