package engine

import (
	"fmt"
	"sync"

	"impactgraph/internal/graph"
	"impactgraph/pkg/models"
)

const maxWhatIfWorkers = 4

// runWhatIf executes each scenario independently against one graph snapshot.
// Scenarios only read the graph, so they fan out across workers; results keep
// input order and a bad scenario becomes a per-item error, never a batch
// fault.
func (e *Engine) runWhatIf(g *graph.Graph, scens []models.WhatIfScenario) *models.WhatIfReport {
	results := make([]models.WhatIfResult, len(scens))

	workers := maxWhatIfWorkers
	if len(scens) < workers {
		workers = len(scens)
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = e.runScenario(g, scens[i])
			}
		}()
	}
	for i := range scens {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return &models.WhatIfReport{
		Results:      results,
		CombinedRisk: combineRisk(results),
	}
}

func (e *Engine) runScenario(g *graph.Graph, s models.WhatIfScenario) models.WhatIfResult {
	result := models.WhatIfResult{Scenario: s}

	pred, err := e.predictOn(g, s.NodeID, s.FailureType, s.Severity)
	if err != nil {
		metricWhatIfScenarios.WithLabelValues("error").Inc()
		result.Error = err.Error()
		return result
	}

	metricWhatIfScenarios.WithLabelValues("ok").Inc()
	result.Prediction = pred
	return result
}

// combineRisk reduces over successful results only. The highest-impact tie
// keeps the first scenario in input order; the unique-node count is the set
// union of affected node ids.
func combineRisk(results []models.WhatIfResult) models.CombinedRisk {
	risk := models.CombinedRisk{TotalScenarios: len(results)}

	union := make(map[string]struct{})
	for _, r := range results {
		if r.Prediction == nil {
			continue
		}
		risk.SuccessfulAnalyses++
		for _, an := range r.Prediction.AffectedNodes {
			union[an.NodeID] = struct{}{}
		}
		count := r.Prediction.TotalAffected
		if risk.HighestImpact == nil || count > risk.HighestImpact.AffectedCount {
			risk.HighestImpact = &models.HighestImpact{
				NodeID:        r.Scenario.NodeID,
				FailureType:   r.Scenario.FailureType,
				Label:         r.Scenario.Label,
				AffectedCount: count,
			}
		}
	}
	risk.TotalUniqueNodesAffected = len(union)
	return risk
}

// predictOn validates arguments against one graph snapshot and runs the
// propagation. Severity left empty resolves to the catalog default for the
// failure type.
func (e *Engine) predictOn(g *graph.Graph, nodeID, failureType string, severity models.Severity) (*models.ImpactPrediction, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("%w: node id is required", ErrInvalidInput)
	}
	if failureType == "" {
		return nil, fmt.Errorf("%w: failure type is required", ErrInvalidInput)
	}
	resolved, err := e.resolveSeverity(failureType, severity)
	if err != nil {
		return nil, err
	}
	source, ok := g.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: node %q is not in the graph", ErrNotFound, nodeID)
	}

	pred := e.predict(g, source, failureType, resolved)
	pred.PredictionID = e.newID()
	pred.GeneratedAt = e.now()
	return pred, nil
}

func (e *Engine) resolveSeverity(failureType string, severity models.Severity) (models.Severity, error) {
	if severity == "" {
		if s, ok := e.catalog.Get(failureType); ok {
			return s.DefaultSeverity, nil
		}
		return models.SeverityMedium, nil
	}
	if !severity.Valid() {
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, severity)
	}
	return severity, nil
}
