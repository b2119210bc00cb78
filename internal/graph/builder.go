package graph

import (
	"fmt"
	"strings"

	"impactgraph/internal/logger"
	"impactgraph/pkg/models"
)

// Edge relation kinds, implied by the endpoint types.
const (
	RelationFlows    = "flows"    // water path through a pipe
	RelationFeeds    = "feeds"    // pump -> tank
	RelationServes   = "serves"   // tank -> cluster, road -> building
	RelationPowers   = "powers"   // power -> pump/building
	RelationMonitors = "monitors" // sensor -> monitored asset
)

type category struct {
	name     string
	baseType models.NodeType
	assets   []models.Asset
}

// Build maps a heterogeneous snapshot into a graph. Malformed records are
// skipped with a diagnostic, never fatally; a partially built graph is a
// valid outcome. Building the same snapshot twice yields identical node and
// edge sets.
func Build(snap *models.Snapshot) (*Graph, []string) {
	g := newGraph()
	var diags []string

	if snap == nil {
		g.finalize()
		return g, diags
	}

	categories := []category{
		{"tanks", models.NodeTank, snap.Tanks},
		{"pumps", models.NodePump, snap.Pumps},
		{"pipes", models.NodePipe, snap.Pipes},
		{"roads", models.NodeRoad, snap.Roads},
		{"buildings", models.NodeBuilding, snap.Buildings},
		{"powerNodes", models.NodePower, snap.PowerNodes},
		{"sensors", models.NodeSensor, snap.Sensors},
		{"clusters", models.NodeCluster, snap.Clusters},
	}

	// First pass: register nodes so edge references can point at any asset
	// regardless of category order.
	ids := make([][]string, len(categories))
	for ci, cat := range categories {
		ids[ci] = make([]string, len(cat.assets))
		for i := range cat.assets {
			id, diag := registerNode(g, cat, i)
			if diag != "" {
				diags = append(diags, diag)
				logger.Warnf("Topology builder: %s", diag)
				continue
			}
			ids[ci][i] = id
		}
	}

	// Second pass: infer edges from declared adjacency references.
	for ci, cat := range categories {
		for i := range cat.assets {
			id := ids[ci][i]
			if id == "" {
				continue
			}
			diags = append(diags, connectAsset(g, id, cat.baseType, &cat.assets[i])...)
		}
	}

	g.finalize()
	return g, diags
}

// registerNode derives a node from one asset record. Assets without an id get
// the synthesized fallback "<type>-<index+1>"; a colliding id (declared or
// synthesized) skips the record rather than overwriting an earlier node.
func registerNode(g *Graph, cat category, index int) (string, string) {
	asset := &cat.assets[index]

	nodeType := cat.baseType
	if cat.baseType == models.NodeBuilding {
		switch models.NodeType(strings.ToLower(asset.Kind)) {
		case models.NodeSchool:
			nodeType = models.NodeSchool
		case models.NodeHospital:
			nodeType = models.NodeHospital
		case models.NodeMarket:
			nodeType = models.NodeMarket
		}
	}

	id := strings.TrimSpace(asset.ID)
	if id == "" {
		id = fmt.Sprintf("%s-%d", nodeType, index+1)
	}

	name := strings.TrimSpace(asset.Name)
	if name == "" {
		name = id
	}

	status := strings.ToLower(strings.TrimSpace(asset.Status))
	if status == "" {
		status = models.StatusOperational
	}

	node := &models.Node{
		ID:         id,
		Name:       name,
		Type:       nodeType,
		Status:     status,
		Lat:        asset.Lat,
		Lng:        asset.Lng,
		Attributes: asset.Attributes,
	}
	if !g.addNode(node) {
		return "", fmt.Sprintf("%s[%d]: duplicate node id %q; record skipped", cat.name, index, id)
	}
	return id, ""
}

// connectAsset turns one asset's declared references into directed edges.
// Supply flows downstream: tank -> pump -> pipe -> consumer.
func connectAsset(g *Graph, id string, baseType models.NodeType, asset *models.Asset) []string {
	var diags []string
	weight := asset.Weight
	if weight < 0 || weight > 1 {
		diags = append(diags, fmt.Sprintf("node %s: edge weight %v outside (0,1]; treated as unweighted", id, weight))
		weight = 0
	}

	addEdge := func(from, to, relation string) {
		if from == to {
			diags = append(diags, fmt.Sprintf("node %s: self reference ignored", id))
			return
		}
		if _, ok := g.Node(from); !ok {
			diags = append(diags, fmt.Sprintf("node %s: reference to unknown node %q ignored", id, from))
			return
		}
		if _, ok := g.Node(to); !ok {
			diags = append(diags, fmt.Sprintf("node %s: reference to unknown node %q ignored", id, to))
			return
		}
		// addEdge dedupes repeated (from, to) pairs silently.
		g.addEdge(models.Edge{From: from, To: to, Relation: relation, Weight: weight})
	}

	switch baseType {
	case models.NodePipe:
		if asset.Source != "" || asset.Target != "" {
			if asset.Source != "" {
				addEdge(asset.Source, id, RelationFlows)
			}
			if asset.Target != "" {
				addEdge(id, asset.Target, RelationFlows)
			}
			break
		}
		// Fallback: declared adjacency list. Supply-side assets flow into
		// the pipe, everything else is downstream of it.
		for _, ref := range asset.Connects {
			if n, ok := g.Node(ref); ok && (n.Type == models.NodeTank || n.Type == models.NodePump) {
				addEdge(ref, id, RelationFlows)
			} else {
				addEdge(id, ref, RelationFlows)
			}
		}
	case models.NodePump:
		for _, ref := range asset.Feeds {
			addEdge(id, ref, RelationFeeds)
		}
	case models.NodeTank:
		for _, ref := range asset.Serves {
			addEdge(id, ref, RelationServes)
		}
	case models.NodeRoad:
		for _, ref := range asset.Serves {
			addEdge(id, ref, RelationServes)
		}
	case models.NodePower:
		for _, ref := range asset.Powers {
			addEdge(id, ref, RelationPowers)
		}
	case models.NodeSensor:
		if asset.Monitors != "" {
			addEdge(id, asset.Monitors, RelationMonitors)
		}
	}

	return diags
}
