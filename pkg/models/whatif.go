package models

// WhatIfResult is one per-scenario outcome. A failed scenario carries Error
// and no prediction; it never aborts the batch.
type WhatIfResult struct {
	Scenario   WhatIfScenario    `json:"scenario"`
	Prediction *ImpactPrediction `json:"prediction,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// HighestImpact names the successful scenario with the most affected nodes.
type HighestImpact struct {
	NodeID        string `json:"node_id"`
	FailureType   string `json:"failure_type"`
	Label         string `json:"label,omitempty"`
	AffectedCount int    `json:"affected_count"`
}

// CombinedRisk reduces over successful what-if results only.
type CombinedRisk struct {
	TotalScenarios           int            `json:"total_scenarios"`
	SuccessfulAnalyses       int            `json:"successful_analyses"`
	HighestImpact            *HighestImpact `json:"highest_impact,omitempty"`
	TotalUniqueNodesAffected int            `json:"total_unique_nodes_affected"`
}

// WhatIfReport is the batch what-if output.
type WhatIfReport struct {
	Results      []WhatIfResult `json:"results"`
	CombinedRisk CombinedRisk   `json:"combined_risk"`
}
