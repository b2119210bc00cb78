// Package engine implements the cascading infrastructure impact engine: a
// deterministic weighted breadth-first propagation over the village graph,
// structural vulnerability ranking, and batch what-if analysis. Scoring is
// table driven; identical graph and arguments always produce identical
// results.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"impactgraph/internal/graph"
	"impactgraph/internal/logger"
	"impactgraph/internal/scenarios"
	"impactgraph/pkg/models"
)

// Options tunes propagation.
type Options struct {
	MaxDepth       int     // maximum hop depth, default 3
	DecayFactor    float64 // per-hop probability decay in (0,1), default 0.6
	MinProbability float64 // exclusion floor in percent, default 5
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 3
	}
	if o.DecayFactor <= 0 || o.DecayFactor >= 1 {
		o.DecayFactor = 0.6
	}
	if o.MinProbability <= 0 {
		o.MinProbability = 5
	}
	return o
}

// Engine is the facade over the graph store, propagation, ranker, and
// what-if aggregator. Stateless per call except for the store, which swaps
// atomically on Initialize; predict and rank calls only read.
type Engine struct {
	store   *graph.Store
	catalog *scenarios.Catalog
	opts    Options

	now   func() time.Time
	newID func() string
}

// New creates an engine with an empty graph store.
func New(catalog *scenarios.Catalog, opts Options) *Engine {
	if catalog == nil {
		catalog = scenarios.Default()
	}
	return &Engine{
		store:   graph.NewStore(),
		catalog: catalog,
		opts:    opts.withDefaults(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// InitResult reports the outcome of one snapshot load.
type InitResult struct {
	NodeCount   int      `json:"node_count"`
	EdgeCount   int      `json:"edge_count"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Initialize builds a graph from the snapshot and swaps it in wholesale.
// Builder diagnostics are non-fatal; a partially built graph still replaces
// the previous one. In-flight readers keep the graph they started with.
func (e *Engine) Initialize(snap *models.Snapshot) InitResult {
	g, diags := graph.Build(snap)
	e.store.Swap(g)

	metricGraphNodes.Set(float64(g.NodeCount()))
	metricGraphEdges.Set(float64(g.EdgeCount()))
	logger.Infof("Graph initialized: nodes=%d edges=%d diagnostics=%d", g.NodeCount(), g.EdgeCount(), len(diags))

	return InitResult{
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		Diagnostics: diags,
	}
}

// activeGraph returns the current graph, or ErrNotInitialized when no
// snapshot has been loaded or the loaded snapshot produced no nodes. Checked
// before any argument validation so "no data" is never masked by a bad
// argument.
func (e *Engine) activeGraph() (*graph.Graph, error) {
	g := e.store.Current()
	if g == nil || g.NodeCount() == 0 {
		return nil, ErrNotInitialized
	}
	return g, nil
}

// PredictImpact runs one failure propagation from the given node.
func (e *Engine) PredictImpact(nodeID, failureType string, severity models.Severity) (*models.ImpactPrediction, error) {
	g, err := e.activeGraph()
	if err != nil {
		metricPredictions.WithLabelValues("not_initialized").Inc()
		return nil, err
	}

	pred, err := e.predictOn(g, nodeID, failureType, severity)
	if err != nil {
		metricPredictions.WithLabelValues("error").Inc()
		return nil, err
	}

	metricPredictions.WithLabelValues("ok").Inc()
	metricAffectedNodes.Observe(float64(pred.TotalAffected))
	return pred, nil
}

// ListScenarios returns the failure-scenario catalog.
func (e *Engine) ListScenarios() []models.FailureScenario {
	return e.catalog.List()
}

// GraphNodes returns the current node projection for visualization.
func (e *Engine) GraphNodes() ([]models.Node, error) {
	g, err := e.activeGraph()
	if err != nil {
		return nil, err
	}
	return g.Nodes(), nil
}

// GraphEdges returns the current edge projection for visualization.
func (e *Engine) GraphEdges() ([]models.Edge, error) {
	g, err := e.activeGraph()
	if err != nil {
		return nil, err
	}
	return g.Edges(), nil
}

// RankVulnerability scores every node's structural criticality.
func (e *Engine) RankVulnerability() (*models.VulnerabilityReport, error) {
	g, err := e.activeGraph()
	if err != nil {
		return nil, err
	}
	return rank(g), nil
}

// RunWhatIf executes a batch of scenarios against the current graph.
// Per-scenario failures become per-item errors; a missing batch is the only
// input that fails the call itself.
func (e *Engine) RunWhatIf(scens []models.WhatIfScenario) (*models.WhatIfReport, error) {
	g, err := e.activeGraph()
	if err != nil {
		return nil, err
	}
	if len(scens) == 0 {
		return nil, fmt.Errorf("%w: scenarios array is required", ErrInvalidInput)
	}
	return e.runWhatIf(g, scens), nil
}
