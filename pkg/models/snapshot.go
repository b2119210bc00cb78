package models

// Asset is one raw infrastructure record from a snapshot category. Adjacency
// references (Source, Target, Feeds, Serves, Powers, Monitors) are declared by
// the upstream store; the builder turns them into directed edges.
type Asset struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Status string  `json:"status,omitempty"`
	Lat    float64 `json:"lat,omitempty"`
	Lng    float64 `json:"lng,omitempty"`

	// Kind refines the node type for buildings (school, hospital, market).
	Kind string `json:"kind,omitempty"`

	// Pipe endpoints: water flows Source -> pipe -> Target.
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	// Connects is the declared adjacency fallback for pipes without explicit
	// endpoints.
	Connects []string `json:"connects,omitempty"`

	Feeds    []string `json:"feeds,omitempty"`    // pump -> tanks
	Serves   []string `json:"serves,omitempty"`   // tank -> clusters, road -> buildings
	Powers   []string `json:"powers,omitempty"`   // power -> pumps/buildings
	Monitors string   `json:"monitors,omitempty"` // sensor -> monitored asset

	// Weight scales propagation over edges declared by this asset, (0,1].
	Weight float64 `json:"weight,omitempty"`

	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Snapshot is the heterogeneous bag of infrastructure records supplied by the
// persistence layer. Absent categories are empty, never an error.
type Snapshot struct {
	Tanks      []Asset `json:"tanks,omitempty"`
	Pumps      []Asset `json:"pumps,omitempty"`
	Pipes      []Asset `json:"pipes,omitempty"`
	Roads      []Asset `json:"roads,omitempty"`
	Buildings  []Asset `json:"buildings,omitempty"`
	PowerNodes []Asset `json:"powerNodes,omitempty"`
	Sensors    []Asset `json:"sensors,omitempty"`
	Clusters   []Asset `json:"clusters,omitempty"`
}
