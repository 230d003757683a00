package analytics

import (
	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
)

// CommunityResult is the consensus community assignment. Community IDs are
// canonical: each is the position of the community's first member in node
// order, so identical partitions always carry identical labels.
type CommunityResult struct {
	Assignments map[string]int
	Sizes       map[int]int
}

// SizeOf returns the size of the community containing the entity, zero when
// the entity is unknown.
func (r *CommunityResult) SizeOf(id string) int {
	label, ok := r.Assignments[id]
	if !ok {
		return 0
	}
	return r.Sizes[label]
}

// CommunityEngine ensembles three independent partitionings: modularity
// local-move optimisation, label propagation, and a divisive edge-betweenness
// split. The divisive pass is only computed directly below the configured
// node limit; above it the modularity partition stands in rather than paying
// its cost. Per-node majority voting with a fixed precedence tie-break
// (modularity, then propagation, then divisive) tolerates disagreement
// between the methods; it does not promise a globally optimal modularity,
// which is an accepted approximation.
type CommunityEngine struct {
	snap   *snapshot
	cfg    config.Config
	logger logging.Logger
}

// NewCommunityEngine creates an engine over a built graph.
func NewCommunityEngine(g *graph.Graph, cfg config.Config, logger logging.Logger) *CommunityEngine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CommunityEngine{snap: newSnapshot(g), cfg: cfg, logger: logger}
}

// Compute returns the consensus assignment. Every node in the graph gets an
// entry; the empty graph yields empty maps.
func (e *CommunityEngine) Compute() *CommunityResult {
	s := e.snap
	n := s.n()
	result := &CommunityResult{
		Assignments: make(map[string]int, n),
		Sizes:       make(map[int]int),
	}
	if n == 0 {
		return result
	}

	modularity := relabelCanonical(modularityPartition(s, 100))
	propagation := relabelCanonical(labelPropagation(s, 100))

	var divisive []int
	if n < e.cfg.DivisiveNodeLimit {
		divisive = relabelCanonical(divisivePartition(s))
	} else {
		e.logger.Debug("divisive partition skipped, reusing modularity partition",
			logging.Int("nodes", n), logging.Int("limit", e.cfg.DivisiveNodeLimit))
		divisive = modularity
	}

	for i, id := range s.ids {
		label := vote(modularity[i], propagation[i], divisive[i])
		result.Assignments[id] = label
		result.Sizes[label]++
	}
	return result
}

// vote picks the majority of three labels; ties fall to the fixed precedence
// modularity > propagation > divisive, i.e. the first argument.
func vote(mod, prop, div int) int {
	if prop == div && prop != mod {
		return prop
	}
	return mod
}

// relabelCanonical rewrites arbitrary partition labels so each community is
// identified by its first member's index in canonical node order. Two
// partitions that group nodes identically then carry identical labels, which
// is what makes cross-algorithm voting meaningful.
func relabelCanonical(part []int) []int {
	first := make(map[int]int, len(part))
	out := make([]int, len(part))
	for i, label := range part {
		rep, ok := first[label]
		if !ok {
			rep = i
			first[label] = rep
		}
		out[i] = rep
	}
	return out
}

// modularityPartition greedily optimises weighted modularity with local
// moves: each sweep offers every node its neighbours' communities and takes
// the best positive gain. Deterministic node order makes reruns identical.
func modularityPartition(s *snapshot, maxSweeps int) []int {
	n := s.n()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	// node strength and total weight under the scalar view
	strength := make([]float64, n)
	twoM := 0.0
	for i := 0; i < n; i++ {
		for _, j := range s.neigh[i] {
			w := s.weight(i, j)
			strength[i] += w
			twoM += w
		}
	}
	if twoM == 0 {
		return labels // no edges: everyone stays alone
	}

	// running total strength per community
	communityStrength := make(map[int]float64, n)
	for i := range labels {
		communityStrength[i] = strength[i]
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		moved := false
		for i := 0; i < n; i++ {
			current := labels[i]

			// weight from i into each adjacent community
			wInto := make(map[int]float64)
			for _, j := range s.neigh[i] {
				wInto[labels[j]] += s.weight(i, j)
			}

			communityStrength[current] -= strength[i]

			bestLabel := current
			bestGain := wInto[current] - communityStrength[current]*strength[i]/twoM
			for label, w := range wInto {
				if label == current {
					continue
				}
				gain := w - communityStrength[label]*strength[i]/twoM
				if gain > bestGain || (gain == bestGain && label < bestLabel) {
					bestGain = gain
					bestLabel = label
				}
			}

			communityStrength[bestLabel] += strength[i]
			if bestLabel != current {
				labels[i] = bestLabel
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return labels
}

// labelPropagation is iterative local-majority voting: every node takes the
// label most frequent among its neighbours, lowest label winning ties.
func labelPropagation(s *snapshot, maxSweeps int) []int {
	n := s.n()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		changed := false
		for i := 0; i < n; i++ {
			if len(s.neigh[i]) == 0 {
				continue
			}
			counts := make(map[int]int)
			for _, j := range s.neigh[i] {
				counts[labels[j]]++
			}
			best := labels[i]
			bestCount := 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					bestCount = count
					best = label
				}
			}
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return labels
}

// divisivePartition performs the first Girvan-Newman split: remove the
// highest-betweenness edge until the component count rises, then label nodes
// by component. Ties on betweenness break to the lexically smallest pair so
// the split is reproducible.
func divisivePartition(s *snapshot) []int {
	n := s.n()

	// working adjacency we can cut edges from
	work := make([]map[int]bool, n)
	edgeTotal := 0
	for i := 0; i < n; i++ {
		work[i] = make(map[int]bool, len(s.neigh[i]))
		for _, j := range s.neigh[i] {
			work[i][j] = true
			if i < j {
				edgeTotal++
			}
		}
	}

	initial := countComponents(work)

	for cut := 0; cut < edgeTotal; cut++ {
		if countComponents(work) > initial {
			break
		}
		a, b, found := maxBetweennessEdge(s, work)
		if !found {
			break
		}
		delete(work[a], b)
		delete(work[b], a)
	}

	return componentLabels(work)
}

// maxBetweennessEdge computes edge betweenness over the working adjacency
// with the Brandes edge-accumulation pass and returns the top edge.
func maxBetweennessEdge(s *snapshot, work []map[int]bool) (int, int, bool) {
	n := len(work)
	scores := make(map[[2]int]float64)

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)

	for source := 0; source < n; source++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[source] = 1
		dist[source] = 0
		order := make([]int, 0, n)
		queue := []int{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)
			for _, w := range sortedNeighbors(s, work, v) {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range preds[w] {
				contribution := (sigma[v] / sigma[w]) * (1.0 + delta[w])
				delta[v] += contribution
				key := [2]int{v, w}
				if w < v {
					key = [2]int{w, v}
				}
				scores[key] += contribution
			}
		}
	}

	best := [2]int{-1, -1}
	bestScore := -1.0
	for key, score := range scores {
		if score > bestScore ||
			(score == bestScore && (key[0] < best[0] || (key[0] == best[0] && key[1] < best[1]))) {
			best = key
			bestScore = score
		}
	}
	if best[0] < 0 {
		return 0, 0, false
	}
	return best[0], best[1], true
}

// sortedNeighbors returns the still-connected neighbours of v in the
// snapshot's deterministic order.
func sortedNeighbors(s *snapshot, work []map[int]bool, v int) []int {
	out := make([]int, 0, len(work[v]))
	for _, j := range s.neigh[v] {
		if work[v][j] {
			out = append(out, j)
		}
	}
	return out
}

func countComponents(work []map[int]bool) int {
	return len(componentGroups(work))
}

func componentLabels(work []map[int]bool) []int {
	labels := make([]int, len(work))
	for label, comp := range componentGroups(work) {
		for _, i := range comp {
			labels[i] = label
		}
	}
	return labels
}

func componentGroups(work []map[int]bool) [][]int {
	n := len(work)
	visited := make([]bool, n)
	var groups [][]int
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		comp := []int{start}
		for head := 0; head < len(comp); head++ {
			for next := range work[comp[head]] {
				if !visited[next] {
					visited[next] = true
					comp = append(comp, next)
				}
			}
		}
		groups = append(groups, comp)
	}
	return groups
}
