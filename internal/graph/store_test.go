package graph

import (
	"testing"

	"impactgraph/pkg/models"
)

func TestStoreCurrentNilBeforeFirstSwap(t *testing.T) {
	s := NewStore()
	if s.Current() != nil {
		t.Fatalf("expected nil graph before first swap")
	}
}

func TestStoreSwapKeepsInFlightView(t *testing.T) {
	s := NewStore()

	g1, _ := Build(&models.Snapshot{Tanks: []models.Asset{{ID: "tank-A"}}})
	s.Swap(g1)

	held := s.Current()

	g2, _ := Build(&models.Snapshot{Pumps: []models.Asset{{ID: "pump-A"}, {ID: "pump-B"}}})
	s.Swap(g2)

	// A reader that grabbed the graph before the swap keeps its snapshot.
	if held.NodeCount() != 1 {
		t.Fatalf("expected held view to keep 1 node, got %d", held.NodeCount())
	}
	if _, ok := held.Node("tank-A"); !ok {
		t.Fatalf("expected held view to still contain tank-A")
	}

	if s.Current().NodeCount() != 2 {
		t.Fatalf("expected current view to have 2 nodes, got %d", s.Current().NodeCount())
	}
}

func TestNodesProjectionCopiesAttributes(t *testing.T) {
	g, _ := Build(&models.Snapshot{
		Clusters: []models.Asset{{ID: "cluster-A", Attributes: map[string]interface{}{"population": 350.0}}},
	})

	nodes := g.Nodes()
	nodes[0].Attributes["population"] = 0.0

	stored, _ := g.Node("cluster-A")
	if stored.NumericAttribute("population") != 350 {
		t.Fatalf("projection mutation leaked into the stored node")
	}
}
