package models

// NodeType classifies an infrastructure asset.
type NodeType string

const (
	NodeTank     NodeType = "tank"
	NodePump     NodeType = "pump"
	NodePipe     NodeType = "pipe"
	NodePower    NodeType = "power"
	NodeCluster  NodeType = "cluster"
	NodeSensor   NodeType = "sensor"
	NodeRoad     NodeType = "road"
	NodeBuilding NodeType = "building"
	NodeSchool   NodeType = "school"
	NodeHospital NodeType = "hospital"
	NodeMarket   NodeType = "market"
)

// Node statuses as reported by the snapshot source.
const (
	StatusOperational = "operational"
	StatusDegraded    = "degraded"
	StatusFailed      = "failed"
)

// Node is a typed vertex representing one infrastructure asset.
// Type-specific properties (capacity, pressure, occupancy, ...) live in the
// open Attributes bag.
type Node struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       NodeType               `json:"type"`
	Status     string                 `json:"status"`
	Lat        float64                `json:"lat,omitempty"`
	Lng        float64                `json:"lng,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// NumericAttribute reads a numeric attribute, returning 0 when absent or not
// a number. JSON decoding yields float64 for all numbers; int covers values
// set directly from Go code.
func (n *Node) NumericAttribute(keys ...string) float64 {
	for _, key := range keys {
		switch v := n.Attributes[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return 0
}

// Edge is a directed relation between two nodes implying possible failure
// propagation. Weight in (0,1] scales propagation probability; zero means
// unweighted.
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight,omitempty"`
}
