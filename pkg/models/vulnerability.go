package models

// VulnerableNode scores the structural criticality of one node independent of
// any specific failure.
type VulnerableNode struct {
	NodeID              string   `json:"node_id"`
	NodeType            NodeType `json:"node_type"`
	NodeName            string   `json:"node_name"`
	Status              string   `json:"status"`
	VulnerabilityScore  float64  `json:"vulnerability_score"` // 0-100
	IncomingConnections int      `json:"incoming_connections"`
	OutgoingConnections int      `json:"outgoing_connections"`
	TotalConnections    int      `json:"total_connections"`
	RiskLevel           string   `json:"risk_level"` // high|medium|low
}

// VulnerabilitySummary counts ranked nodes per risk bucket.
type VulnerabilitySummary struct {
	TotalNodes int `json:"total_nodes"`
	HighRisk   int `json:"high_risk"`
	MediumRisk int `json:"medium_risk"`
	LowRisk    int `json:"low_risk"`
}

// VulnerabilityReport is the ranker output: nodes sorted by score descending,
// ties broken by node id.
type VulnerabilityReport struct {
	Nodes   []VulnerableNode     `json:"nodes"`
	Summary VulnerabilitySummary `json:"summary"`
}
