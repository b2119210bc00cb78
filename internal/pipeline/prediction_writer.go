package pipeline

import "impactgraph/pkg/models"

// PredictionWriter is the sink for finished impact predictions.
type PredictionWriter interface {
	WritePredictions(preds []*models.ImpactPrediction) error
	Close() error
}

// RiskRecorder persists cumulative per-node risk counters.
type RiskRecorder interface {
	RecordPredictions(preds []*models.ImpactPrediction) error
	Close() error
}
