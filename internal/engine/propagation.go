package engine

import (
	"fmt"
	"math"
	"sort"

	"impactgraph/internal/graph"
	"impactgraph/pkg/models"
)

// baseProbability is the hop-0 probability (percent) per source severity.
var baseProbability = map[models.Severity]float64{
	models.SeverityCritical: 90,
	models.SeverityHigh:     70,
	models.SeverityMedium:   45,
	models.SeverityLow:      20,
}

// impactBaseHours is the per-hop time-to-impact base per node type. Wired
// assets react faster than assets reached by road or occupancy.
var impactBaseHours = map[models.NodeType]float64{
	models.NodePower:    1,
	models.NodeSensor:   1,
	models.NodePump:     2,
	models.NodePipe:     2,
	models.NodeTank:     3,
	models.NodeCluster:  3,
	models.NodeRoad:     4,
	models.NodeBuilding: 4,
	models.NodeSchool:   4,
	models.NodeHospital: 4,
	models.NodeMarket:   4,
}

const defaultImpactBaseHours = 3

// severityAtDepth steps severity down one level per hop past the first and
// never escalates with distance.
func severityAtDepth(source models.Severity, depth int) models.Severity {
	rank := source.Rank() - (depth - 1)
	return models.SeverityFromRank(rank)
}

func timeToImpact(t models.NodeType, failureType string, sourceType models.NodeType, depth int) float64 {
	base, ok := impactBaseHours[t]
	if !ok {
		base = defaultImpactBaseHours
	}
	hours := float64(depth) * base
	// Electrical failures reach wired loads roughly twice as fast.
	if failureType == "power_outage" || sourceType == models.NodePower {
		hours /= 2
	}
	if hours < 0.5 {
		hours = 0.5
	}
	return round2(hours)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type discovery struct {
	probability float64
	depth       int
	fromID      string
}

// predict runs the bounded breadth-first propagation. Pure function of the
// graph and arguments; the caller attaches prediction metadata.
func (e *Engine) predict(g *graph.Graph, source *models.Node, failureType string, severity models.Severity) *models.ImpactPrediction {
	visited := map[string]discovery{
		source.ID: {probability: baseProbability[severity], depth: 0},
	}
	frontier := []string{source.ID}

	var path []models.PropagationStep
	var affected []models.AffectedNode

	for depth := 1; depth <= e.opts.MaxDepth && len(frontier) > 0; depth++ {
		// Gather this level's candidates keeping, per node, the highest
		// probability among same-depth discoveries.
		candidates := make(map[string]discovery)
		for _, fromID := range frontier {
			fromProb := visited[fromID].probability
			for _, edge := range g.Outgoing(fromID) {
				if _, seen := visited[edge.To]; seen {
					continue
				}
				weight := edge.Weight
				if weight <= 0 || weight > 1 {
					weight = 1
				}
				prob := fromProb * e.opts.DecayFactor * weight
				if cur, ok := candidates[edge.To]; !ok || prob > cur.probability {
					candidates[edge.To] = discovery{probability: prob, depth: depth, fromID: fromID}
				}
			}
		}

		ids := make([]string, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		frontier = frontier[:0]
		for _, id := range ids {
			cand := candidates[id]
			// Below the floor the node is excluded; with decay < 1 anything
			// past it would score lower still, so the branch ends here.
			if cand.probability < e.opts.MinProbability {
				continue
			}
			visited[id] = cand
			frontier = append(frontier, id)
			path = append(path, models.PropagationStep{FromID: cand.fromID, ToID: id, Depth: depth})

			node, _ := g.Node(id)
			affected = append(affected, e.affectedNode(node, cand, failureType, severity, source.Type))
		}
	}

	pred := &models.ImpactPrediction{
		SourceFailure: models.SourceFailure{
			NodeID:      source.ID,
			NodeType:    source.Type,
			NodeName:    source.Name,
			FailureType: failureType,
			Severity:    severity,
		},
		AffectedNodes:   affected,
		PropagationPath: path,
	}
	assess(g, pred)
	return pred
}

func (e *Engine) affectedNode(node *models.Node, d discovery, failureType string, sourceSeverity models.Severity, sourceType models.NodeType) models.AffectedNode {
	severity := severityAtDepth(sourceSeverity, d.depth)
	probability := round2(d.probability)
	effects, recommendations := effectsFor(node.Type, failureType, severity)

	return models.AffectedNode{
		NodeID:            node.ID,
		NodeType:          node.Type,
		NodeName:          node.Name,
		Severity:          severity,
		Probability:       probability,
		TimeToImpactHours: timeToImpact(node.Type, failureType, sourceType, d.depth),
		Depth:             d.depth,
		Effects:           effects,
		Metrics:           metricsFor(node.Type, probability),
		Recommendations:   recommendations,
	}
}

// recoveryEstimates by overall risk level.
var recoveryEstimates = map[models.Severity]string{
	models.SeverityCritical: "48-72 hours",
	models.SeverityHigh:     "24-48 hours",
	models.SeverityMedium:   "12-24 hours",
	models.SeverityLow:      "under 12 hours",
}

// assess fills the aggregate counts and the overall assessment from the
// affected-node list. Pure reductions only.
func assess(g *graph.Graph, pred *models.ImpactPrediction) {
	pred.TotalAffected = len(pred.AffectedNodes)

	risk := pred.SourceFailure.Severity
	population := 0.0
	for _, an := range pred.AffectedNodes {
		switch an.Severity {
		case models.SeverityCritical:
			pred.CriticalCount++
		case models.SeverityHigh:
			pred.HighCount++
		}
		if an.Severity.Rank() > risk.Rank() {
			risk = an.Severity
		}
		// Population sums occupancy/population attributes where present;
		// absent values count as zero.
		if node, ok := g.Node(an.NodeID); ok {
			population += node.NumericAttribute("population", "occupancy")
		}
	}

	pred.OverallAssessment = models.OverallAssessment{
		RiskLevel: risk,
		Summary: fmt.Sprintf("%s failure at %s affects %d downstream nodes (%d critical, %d high)",
			pred.SourceFailure.Severity, pred.SourceFailure.NodeName,
			pred.TotalAffected, pred.CriticalCount, pred.HighCount),
		AffectedPopulation:    int(math.Round(population)),
		EstimatedRecoveryTime: recoveryEstimates[risk],
	}
	pred.OverallAssessment.PriorityActions = priorityActions(pred)
}

const maxPriorityActions = 5

// priorityActions orders response work: most severe nodes first, power-family
// assets before water within the same severity (restore power before water),
// node id as the final tie break. A population notice closes the list when
// anyone is affected.
func priorityActions(pred *models.ImpactPrediction) []string {
	ranked := append([]models.AffectedNode(nil), pred.AffectedNodes...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Severity.Rank() != ranked[j].Severity.Rank() {
			return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
		}
		pi, pj := isPowerFamily(ranked[i].NodeType), isPowerFamily(ranked[j].NodeType)
		if pi != pj {
			return pi
		}
		return ranked[i].NodeID < ranked[j].NodeID
	})

	var actions []string
	for _, an := range ranked {
		if len(actions) >= maxPriorityActions {
			break
		}
		actions = append(actions, fmt.Sprintf("%s %s (%s)", actionVerb(an.NodeType), an.NodeName, an.NodeID))
	}
	if pred.OverallAssessment.AffectedPopulation > 0 {
		actions = append(actions, fmt.Sprintf("Notify approximately %d affected residents", pred.OverallAssessment.AffectedPopulation))
	}
	return actions
}

func isPowerFamily(t models.NodeType) bool {
	return t == models.NodePower || t == models.NodePump
}

func actionVerb(t models.NodeType) string {
	switch t {
	case models.NodePower:
		return "Restore power supply at"
	case models.NodePump:
		return "Restore pumping at"
	case models.NodeTank:
		return "Secure water reserve at"
	case models.NodePipe:
		return "Inspect and repair"
	case models.NodeSensor:
		return "Restore telemetry from"
	case models.NodeRoad:
		return "Clear access on"
	case models.NodeHospital:
		return "Support emergency operations at"
	default:
		return "Check supply to"
	}
}
