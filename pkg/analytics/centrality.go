package analytics

import (
	"math"
	"sync"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/parallel"
)

// Scores holds every centrality measure for one entity.
type Scores struct {
	Degree      float64 `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Eigenvector float64 `json:"eigenvector"`
	PageRank    float64 `json:"pagerank"`
	Load        float64 `json:"load"`
	Katz        float64 `json:"katz"`
	Clustering  float64 `json:"clustering"`
	Reach       float64 `json:"reach"`
}

// CentralityResult contains per-entity scores plus convergence flags for the
// iterative measures. Non-convergence is best-effort, never a run failure.
type CentralityResult struct {
	Scores               map[string]Scores
	EigenvectorConverged bool
	KatzConverged        bool
	PageRankConverged    bool
}

// CentralityEngine computes the full measure set over one immutable graph
// snapshot. The per-source passes (betweenness, load) dominate run time and
// are spread over the worker pool; everything is read-only over the shared
// snapshot.
type CentralityEngine struct {
	snap   *snapshot
	cfg    config.Config
	pool   *parallel.WorkerPool
	logger logging.Logger
}

// NewCentralityEngine creates an engine over a built graph.
func NewCentralityEngine(g *graph.Graph, cfg config.Config, pool *parallel.WorkerPool, logger logging.Logger) *CentralityEngine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CentralityEngine{snap: newSnapshot(g), cfg: cfg, pool: pool, logger: logger}
}

// Compute calculates all measures. An empty graph yields an empty score map.
func (e *CentralityEngine) Compute() *CentralityResult {
	s := e.snap
	n := s.n()
	result := &CentralityResult{
		Scores:               make(map[string]Scores, n),
		EigenvectorConverged: true,
		KatzConverged:        true,
		PageRankConverged:    true,
	}
	if n == 0 {
		return result
	}

	degree := degreeCentrality(s)
	betweenness := e.brandes(false)
	load := e.brandes(true)
	eigenvector, eigOK := powerIteration(s, e.cfg.EigenvectorMaxIter, 1e-6)
	pagerank, prOK := pageRank(s, 0.85, 100, 1e-6)
	katz, katzOK := katzCentrality(s, 0.1, 1.0, e.cfg.EigenvectorMaxIter, 1e-6)
	clustering := clusteringCoefficient(s)
	reach := e.reachCentrality()

	result.EigenvectorConverged = eigOK
	result.PageRankConverged = prOK
	result.KatzConverged = katzOK
	if !eigOK {
		e.logger.Warn("eigenvector centrality did not converge, returning best effort",
			logging.Int("max_iter", e.cfg.EigenvectorMaxIter))
	}

	for i, id := range s.ids {
		result.Scores[id] = Scores{
			Degree:      degree[i],
			Betweenness: betweenness[i],
			Eigenvector: eigenvector[i],
			PageRank:    pagerank[i],
			Load:        load[i],
			Katz:        katz[i],
			Clustering:  clustering[i],
			Reach:       reach[i],
		}
	}
	return result
}

// degreeCentrality is degree / (n-1).
func degreeCentrality(s *snapshot) []float64 {
	n := s.n()
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := range out {
		out[i] = float64(len(s.neigh[i])) / float64(n-1)
	}
	return out
}

// brandes runs per-source shortest-path accumulation over the worker pool.
// With load=false it accumulates Brandes betweenness (dependency splitting
// proportional to path counts); with load=true it accumulates Newman load,
// splitting flow equally among predecessors. Per-chunk accumulators keep
// workers write-isolated; the merge order is fixed, and since merging is a
// sum the result is independent of scheduling.
func (e *CentralityEngine) brandes(load bool) []float64 {
	s := e.snap
	n := s.n()
	total := make([]float64, n)
	if n < 3 {
		return total
	}

	var mu sync.Mutex
	parallel.ForEachChunk(e.pool, n, func(start, end int) {
		partial := make([]float64, n)
		for source := start; source < end; source++ {
			accumulateFromSource(s, source, load, partial)
		}
		mu.Lock()
		for i, v := range partial {
			total[i] += v
		}
		mu.Unlock()
	})

	// Undirected normalisation: each pair is counted from both endpoints.
	norm := 2.0 / (float64(n-1) * float64(n-2))
	for i := range total {
		total[i] *= norm / 2.0
	}
	return total
}

// accumulateFromSource runs one BFS stage plus back-propagation from a
// single source, adding dependencies into acc.
func accumulateFromSource(s *snapshot, source int, load bool, acc []float64) {
	n := s.n()
	sigma := make([]float64, n)
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	preds := make([][]int, n)
	order := make([]int, 0, n)

	sigma[source] = 1
	dist[source] = 0
	queue := []int{source}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, w := range s.neigh[v] {
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

	delta := make([]float64, n)
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range preds[w] {
			if load {
				// Newman load: unit flow split equally among predecessors
				delta[v] += (1.0 + delta[w]) / float64(len(preds[w]))
			} else {
				delta[v] += (sigma[v] / sigma[w]) * (1.0 + delta[w])
			}
		}
		if w != source {
			acc[w] += delta[w]
		}
	}
}

// powerIteration computes eigenvector centrality. Returns the best-effort
// vector and whether it converged inside maxIter.
func powerIteration(s *snapshot, maxIter int, tol float64) ([]float64, bool) {
	n := s.n()
	x := make([]float64, n)
	for i := range x {
		x[i] = 1.0 / float64(n)
	}
	next := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		for i := range next {
			next[i] = x[i] // identity shift keeps bipartite structures from oscillating
			for _, j := range s.neigh[i] {
				next[i] += x[j]
			}
		}
		norm := l2norm(next)
		if norm == 0 {
			return x, true
		}
		maxDiff := 0.0
		for i := range next {
			next[i] /= norm
			if d := math.Abs(next[i] - x[i]); d > maxDiff {
				maxDiff = d
			}
		}
		x, next = next, x
		if maxDiff < tol*float64(n) {
			return x, true
		}
	}
	return x, false
}

// pageRank is the standard damped random-surfer iteration, normalised to
// sum to 1.
func pageRank(s *snapshot, damping float64, maxIter int, tol float64) ([]float64, bool) {
	n := s.n()
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}
	next := make([]float64, n)
	converged := false

	for iter := 0; iter < maxIter; iter++ {
		base := (1.0 - damping) / float64(n)

		// dangling mass is redistributed uniformly
		dangling := 0.0
		for i := range scores {
			if len(s.neigh[i]) == 0 {
				dangling += scores[i]
			}
		}
		base += damping * dangling / float64(n)

		for i := range next {
			next[i] = base
			for _, j := range s.neigh[i] {
				next[i] += damping * scores[j] / float64(len(s.neigh[j]))
			}
		}

		maxDiff := 0.0
		for i := range next {
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < tol {
			converged = true
			break
		}
	}

	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	if sum > 0 {
		for i := range scores {
			scores[i] /= sum
		}
	}
	return scores, converged
}

// katzCentrality iterates x = alpha*A*x + beta, L2-normalised on return.
func katzCentrality(s *snapshot, alpha, beta float64, maxIter int, tol float64) ([]float64, bool) {
	n := s.n()
	x := make([]float64, n)
	next := make([]float64, n)
	converged := false

	for iter := 0; iter < maxIter; iter++ {
		for i := range next {
			next[i] = beta
			for _, j := range s.neigh[i] {
				next[i] += alpha * x[j]
			}
		}
		maxDiff := 0.0
		for i := range next {
			if d := math.Abs(next[i] - x[i]); d > maxDiff {
				maxDiff = d
			}
		}
		x, next = next, x
		if maxDiff < tol {
			converged = true
			break
		}
	}

	if norm := l2norm(x); norm > 0 {
		for i := range x {
			x[i] /= norm
		}
	}
	return x, converged
}

// clusteringCoefficient is the local triangle density of each node's
// neighbourhood.
func clusteringCoefficient(s *snapshot) []float64 {
	n := s.n()
	out := make([]float64, n)

	neighborSet := make([]map[int]bool, n)
	for i := range neighborSet {
		set := make(map[int]bool, len(s.neigh[i]))
		for _, j := range s.neigh[i] {
			set[j] = true
		}
		neighborSet[i] = set
	}

	for i := 0; i < n; i++ {
		k := len(s.neigh[i])
		if k < 2 {
			continue
		}
		triangles := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if neighborSet[s.neigh[i][a]][s.neigh[i][b]] {
					triangles++
				}
			}
		}
		out[i] = 2.0 * float64(triangles) / float64(k*(k-1))
	}
	return out
}

// reachCentrality is the fraction of all other nodes reachable within the
// configured hop radius. Reachability stays inside the connected component.
// The denominator is n-1 (every node but the source), so a node reaching the
// whole graph scores exactly 1 regardless of graph size.
func (e *CentralityEngine) reachCentrality() []float64 {
	s := e.snap
	n := s.n()
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	radius := e.cfg.ReachRadius

	parallel.ForEachChunk(e.pool, n, func(start, end int) {
		dist := make([]int, n)
		for source := start; source < end; source++ {
			for i := range dist {
				dist[i] = -1
			}
			dist[source] = 0
			queue := []int{source}
			reached := 0
			for len(queue) > 0 {
				v := queue[0]
				queue = queue[1:]
				if dist[v] >= radius {
					continue
				}
				for _, w := range s.neigh[v] {
					if dist[w] < 0 {
						dist[w] = dist[v] + 1
						reached++
						queue = append(queue, w)
					}
				}
			}
			out[source] = float64(reached) / float64(n-1)
		}
	})
	return out
}

func l2norm(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}
