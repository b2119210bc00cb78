package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricPredictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "impactgraph",
		Name:      "predictions_total",
		Help:      "Impact predictions by outcome.",
	}, []string{"outcome"})

	metricAffectedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "impactgraph",
		Name:      "prediction_affected_nodes",
		Help:      "Affected node count per successful prediction.",
		Buckets:   prometheus.LinearBuckets(0, 5, 10),
	})

	metricWhatIfScenarios = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "impactgraph",
		Name:      "what_if_scenarios_total",
		Help:      "What-if scenario runs by outcome.",
	}, []string{"outcome"})

	metricGraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "impactgraph",
		Name:      "graph_nodes",
		Help:      "Nodes in the active graph.",
	})

	metricGraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "impactgraph",
		Name:      "graph_edges",
		Help:      "Edges in the active graph.",
	})
)
