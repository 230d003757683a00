package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/registryintel/shellnet/pkg/config"
	"github.com/registryintel/shellnet/pkg/graph"
	"github.com/registryintel/shellnet/pkg/logging"
	"github.com/registryintel/shellnet/pkg/metrics"
	"github.com/registryintel/shellnet/pkg/parallel"
)

// componentOrder fixes the reporting order for partial failures so that
// strict-mode errors and log output are deterministic across runs.
var componentOrder = []string{
	ComponentCentrality,
	ComponentCommunity,
	ComponentStructural,
	ComponentTemporal,
	ComponentAnomaly,
}

// NetworkAnalyzer runs the full analysis pipeline over one built graph.
// The graph must not be mutated while an analysis is in flight; the
// analyzer itself only reads.
type NetworkAnalyzer struct {
	g         *graph.Graph
	cfg       config.Config
	logger    logging.Logger
	telemetry *metrics.Registry
}

// NewNetworkAnalyzer creates an analyzer over a built graph. A nil logger
// disables logging and a nil telemetry registry disables metrics.
func NewNetworkAnalyzer(g *graph.Graph, cfg config.Config, logger logging.Logger, telemetry *metrics.Registry) *NetworkAnalyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NetworkAnalyzer{g: g, cfg: cfg, logger: logger, telemetry: telemetry}
}

// CalculateNetworkMetrics runs every analysis component and assembles the
// result bundle. Component failures are partial by default: the failed
// component's outputs are empty, ComponentErrors names it, and the sibling
// outputs stay valid. With Strict set any component failure aborts the run.
// An empty graph is a valid input and yields an empty, error-free bundle.
func (a *NetworkAnalyzer) CalculateNetworkMetrics(ctx context.Context) (*NetworkMetrics, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := a.logger.With(logging.RunID(runID), logging.Component("analyzer"))

	if err := ctx.Err(); err != nil {
		return nil, &AnalysisError{Op: "CalculateNetworkMetrics", Cause: err}
	}

	m := &NetworkMetrics{
		RunID:               runID,
		Nodes:               a.g.Nodes(),
		CentralityScores:    map[string]Scores{},
		CommunityMembership: map[string]int{},
		CommunitySizes:      map[int]int{},
		AnomalyScores:       map[string]float64{},
		ComponentErrors:     map[string]error{},
	}
	a.telemetry.SetGraphSize(a.g.NodeCount(), a.g.EdgeCount())

	pool, err := parallel.NewWorkerPool(a.cfg.Workers)
	if err != nil {
		return nil, &AnalysisError{Op: "CalculateNetworkMetrics", Cause: err}
	}
	defer pool.Close()

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		centrality *CentralityResult
		community  *CommunityResult
		structural *StructuralResult
	)

	fail := func(component string, err error) {
		mu.Lock()
		m.ComponentErrors[component] = err
		mu.Unlock()
		a.telemetry.RecordComponentFailure(component)
		log.Error("analysis component failed",
			logging.String("analysis_component", component),
			logging.Error(err))
	}

	run := func(component string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(component, fmt.Errorf("panic: %v", r))
				}
			}()
			t := time.Now()
			fn()
			a.telemetry.RecordComponent(component, time.Since(t))
		}()
	}

	run(ComponentCentrality, func() {
		res := NewCentralityEngine(a.g, a.cfg, pool, log).Compute()
		mu.Lock()
		centrality = res
		mu.Unlock()
	})
	run(ComponentCommunity, func() {
		res := NewCommunityEngine(a.g, a.cfg, log).Compute()
		mu.Lock()
		community = res
		mu.Unlock()
	})
	run(ComponentStructural, func() {
		res := NewStructuralEngine(a.g, a.cfg, log).Compute()
		mu.Lock()
		structural = res
		mu.Unlock()
	})
	run(ComponentTemporal, func() {
		res := NewTemporalEngine(a.g, a.cfg).Compute()
		mu.Lock()
		m.TemporalPatterns = res
		mu.Unlock()
	})
	wg.Wait()

	if centrality != nil {
		m.CentralityScores = centrality.Scores
		if !centrality.EigenvectorConverged {
			m.Conditions = append(m.Conditions, ConditionEigenvectorBestEffort)
		}
	}
	if community != nil {
		m.CommunityMembership = community.Assignments
		m.CommunitySizes = community.Sizes
	}
	if structural != nil {
		m.RiskPatterns = structural.Patterns
		m.SuspiciousCycles = structural.SuspiciousCycles
		if structural.CyclesTruncated {
			m.Conditions = append(m.Conditions, ConditionCyclesTruncated)
			a.telemetry.RecordCyclesTruncated()
		}
	}

	a.scoreAnomalies(m, centrality, fail)

	for _, p := range m.AllPatterns() {
		a.telemetry.RecordPatterns(p.Type, 1)
	}

	if a.cfg.Strict {
		for _, component := range componentOrder {
			if cause, ok := m.ComponentErrors[component]; ok {
				a.telemetry.RecordAnalysisRun("error", time.Since(start))
				return nil, &AnalysisError{
					Op:        "CalculateNetworkMetrics",
					Component: component,
					Cause:     fmt.Errorf("%w: %v", ErrComponentFailed, cause),
				}
			}
		}
	}

	status := "ok"
	if len(m.ComponentErrors) > 0 {
		status = "partial"
	}
	a.telemetry.RecordAnalysisRun(status, time.Since(start))
	log.Info("analysis run complete",
		logging.Count(len(m.Nodes)),
		logging.Int("risk_patterns", len(m.RiskPatterns)),
		logging.Int("temporal_patterns", len(m.TemporalPatterns)),
		logging.Int("suspicious_cycles", len(m.SuspiciousCycles)),
		logging.Int("failed_components", len(m.ComponentErrors)),
		logging.Latency(time.Since(start)))
	return m, nil
}

// scoreAnomalies computes Mahalanobis distances over centrality features,
// falling back to Euclidean distance when the covariance matrix is singular.
// Strict mode treats the singular matrix as a component failure instead.
func (a *NetworkAnalyzer) scoreAnomalies(m *NetworkMetrics, centrality *CentralityResult, fail func(string, error)) {
	if centrality == nil {
		fail(ComponentAnomaly, fmt.Errorf("centrality scores unavailable"))
		return
	}
	t := time.Now()
	scorer := NewAnomalyScorer(m.Nodes, centrality)
	scores, err := scorer.Mahalanobis()
	if err != nil {
		if a.cfg.Strict {
			fail(ComponentAnomaly, err)
			return
		}
		scores = scorer.Euclidean()
		m.Conditions = append(m.Conditions, ConditionAnomalyEuclidean)
		a.logger.Warn("anomaly scoring fell back to euclidean distance",
			logging.RunID(m.RunID), logging.Error(err))
	}
	m.AnomalyScores = scores
	a.telemetry.RecordComponent(ComponentAnomaly, time.Since(t))
}
