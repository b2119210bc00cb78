package graph

import (
	"sort"
	"sync/atomic"

	"impactgraph/pkg/models"
)

// Graph is one immutable infrastructure snapshot: typed nodes keyed by id plus
// directed adjacency. Built once by the Builder, then only read.
type Graph struct {
	nodes map[string]*models.Node
	order []string // node ids, ascending
	out   map[string][]models.Edge
	in    map[string][]models.Edge
	edges []models.Edge
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*models.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns a copy of all nodes in id order, with copied attribute bags
// so callers cannot mutate the stored snapshot.
func (g *Graph) Nodes() []models.Node {
	out := make([]models.Node, 0, len(g.order))
	for _, id := range g.order {
		n := *g.nodes[id]
		if len(n.Attributes) > 0 {
			attrs := make(map[string]interface{}, len(n.Attributes))
			for k, v := range n.Attributes {
				attrs[k] = v
			}
			n.Attributes = attrs
		}
		out = append(out, n)
	}
	return out
}

// Edges returns a copy of all edges ordered by (from, to).
func (g *Graph) Edges() []models.Edge {
	return append([]models.Edge(nil), g.edges...)
}

// Outgoing returns the outgoing edges of a node, ordered by target id.
func (g *Graph) Outgoing(id string) []models.Edge {
	return g.out[id]
}

// Degree returns incoming and outgoing edge counts for a node.
func (g *Graph) Degree(id string) (in, out int) {
	return len(g.in[id]), len(g.out[id])
}

func (g *Graph) addNode(n *models.Node) bool {
	if _, exists := g.nodes[n.ID]; exists {
		return false
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return true
}

func (g *Graph) addEdge(e models.Edge) bool {
	for _, existing := range g.out[e.From] {
		if existing.To == e.To {
			return false
		}
	}
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	g.edges = append(g.edges, e)
	return true
}

// finalize sorts node order and adjacency so traversal and projections are
// deterministic regardless of snapshot record order.
func (g *Graph) finalize() {
	sort.Strings(g.order)
	for id := range g.out {
		edges := g.out[id]
		sort.Slice(edges, func(i, j int) bool { return edges[i].To < edges[j].To })
	}
	for id := range g.in {
		edges := g.in[id]
		sort.Slice(edges, func(i, j int) bool { return edges[i].From < edges[j].From })
	}
	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*models.Node),
		out:   make(map[string][]models.Edge),
		in:    make(map[string][]models.Edge),
	}
}

// Store holds the current graph behind an atomic pointer. Initialize swaps the
// whole graph; in-flight readers keep a consistent, if stale, view.
type Store struct {
	current atomic.Pointer[Graph]
}

// NewStore creates an empty store. Current returns nil until the first Swap.
func NewStore() *Store {
	return &Store{}
}

// Swap replaces the current graph wholesale.
func (s *Store) Swap(g *Graph) {
	s.current.Store(g)
}

// Current returns the active graph, or nil when no snapshot has been loaded.
func (s *Store) Current() *Graph {
	return s.current.Load()
}
