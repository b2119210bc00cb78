package models

import "time"

// ImpactMetrics quantifies impact facets for one affected node, each 0-100.
type ImpactMetrics struct {
	SupplyDisruption float64 `json:"supply_disruption"`
	PressureDrop     float64 `json:"pressure_drop"`
	QualityRisk      float64 `json:"quality_risk"`
	CascadeRisk      float64 `json:"cascade_risk"`
}

// AffectedNode is one node reached by failure propagation. Recomputed per
// prediction call, never persisted in the graph store.
type AffectedNode struct {
	NodeID            string        `json:"node_id"`
	NodeType          NodeType      `json:"node_type"`
	NodeName          string        `json:"node_name"`
	Severity          Severity      `json:"severity"`
	Probability       float64       `json:"probability"`          // 0-100
	TimeToImpactHours float64       `json:"time_to_impact_hours"` // >= 0
	Depth             int           `json:"depth"`
	Effects           []string      `json:"effects"`
	Metrics           ImpactMetrics `json:"metrics"`
	Recommendations   []string      `json:"recommendations"`
}

// PropagationStep records one traversed edge in discovery order.
type PropagationStep struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Depth  int    `json:"depth"`
}

// SourceFailure identifies the failing node a prediction starts from.
type SourceFailure struct {
	NodeID      string   `json:"node_id"`
	NodeType    NodeType `json:"node_type"`
	NodeName    string   `json:"node_name"`
	FailureType string   `json:"failure_type"`
	Severity    Severity `json:"severity"`
}

// OverallAssessment summarizes a prediction for operators.
type OverallAssessment struct {
	RiskLevel             Severity `json:"risk_level"`
	Summary               string   `json:"summary"`
	AffectedPopulation    int      `json:"estimated_affected_population"`
	EstimatedRecoveryTime string   `json:"estimated_recovery_time"`
	PriorityActions       []string `json:"priority_actions"`
}

// ImpactPrediction is the full output of one propagation run.
type ImpactPrediction struct {
	PredictionID      string            `json:"prediction_id"`
	GeneratedAt       time.Time         `json:"generated_at"`
	SourceFailure     SourceFailure     `json:"source_failure"`
	AffectedNodes     []AffectedNode    `json:"affected_nodes"`
	PropagationPath   []PropagationStep `json:"propagation_path"`
	TotalAffected     int               `json:"total_affected"`
	CriticalCount     int               `json:"critical_count"`
	HighCount         int               `json:"high_count"`
	OverallAssessment OverallAssessment `json:"overall_assessment"`
}
