package engine

import (
	"sort"

	"impactgraph/internal/graph"
	"impactgraph/pkg/models"
)

// typeCriticality is the fixed structural weight per node type; unlisted
// types score 0.5.
var typeCriticality = map[models.NodeType]float64{
	models.NodePower:    0.95,
	models.NodePump:     0.90,
	models.NodeHospital: 0.85,
	models.NodeTank:     0.80,
	models.NodeSchool:   0.75,
	models.NodeCluster:  0.70,
	models.NodeMarket:   0.60,
	models.NodeBuilding: 0.60,
	models.NodePipe:     0.50,
	models.NodeRoad:     0.40,
	models.NodeSensor:   0.30,
}

const defaultTypeCriticality = 0.5

// rank scores every node's structural vulnerability independent of any
// failure scenario: 0.4 connectivity + 0.4 type criticality + 0.2 status
// penalty, published on a 0-100 scale, sorted descending with node id as the
// tie break.
func rank(g *graph.Graph) *models.VulnerabilityReport {
	nodes := g.Nodes()
	ranked := make([]models.VulnerableNode, 0, len(nodes))
	summary := models.VulnerabilitySummary{TotalNodes: len(nodes)}

	for i := range nodes {
		n := &nodes[i]
		in, out := g.Degree(n.ID)
		total := in + out

		connectivity := float64(total) / 10
		if connectivity > 1 {
			connectivity = 1
		}
		criticality, ok := typeCriticality[n.Type]
		if !ok {
			criticality = defaultTypeCriticality
		}
		penalty := 0.0
		if n.Status != models.StatusOperational && n.Status != "good" {
			penalty = 0.3
		}

		score := 0.4*connectivity + 0.4*criticality + 0.2*penalty
		riskLevel := "low"
		switch {
		case score > 0.7:
			riskLevel = "high"
			summary.HighRisk++
		case score > 0.4:
			riskLevel = "medium"
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}

		ranked = append(ranked, models.VulnerableNode{
			NodeID:              n.ID,
			NodeType:            n.Type,
			NodeName:            n.Name,
			Status:              n.Status,
			VulnerabilityScore:  round2(score * 100),
			IncomingConnections: in,
			OutgoingConnections: out,
			TotalConnections:    total,
			RiskLevel:           riskLevel,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].VulnerabilityScore != ranked[j].VulnerabilityScore {
			return ranked[i].VulnerabilityScore > ranked[j].VulnerabilityScore
		}
		return ranked[i].NodeID < ranked[j].NodeID
	})

	return &models.VulnerabilityReport{Nodes: ranked, Summary: summary}
}
