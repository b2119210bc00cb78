package engine

import (
	"testing"

	"impactgraph/pkg/models"
)

func vulnerabilitySnapshot() *models.Snapshot {
	return &models.Snapshot{
		PowerNodes: []models.Asset{{ID: "power-A", Powers: []string{"pump-A"}}},
		Pumps:      []models.Asset{{ID: "pump-A", Feeds: []string{"pipe-A"}}},
		Pipes:      []models.Asset{{ID: "pipe-A", Target: "school-A"}},
		Buildings:  []models.Asset{{ID: "school-A", Kind: "school"}},
	}
}

func TestRankVulnerabilityScoresAndOrder(t *testing.T) {
	eng := newTestEngine(t, vulnerabilitySnapshot(), Options{})

	report, err := eng.RankVulnerability()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Nodes) != 4 {
		t.Fatalf("expected 4 ranked nodes, got %d", len(report.Nodes))
	}

	// pump-A: 2 connections, criticality 0.90 -> 0.4*0.2 + 0.4*0.9 = 0.44.
	top := report.Nodes[0]
	if top.NodeID != "pump-A" {
		t.Fatalf("expected pump-A on top, got %s", top.NodeID)
	}
	if top.VulnerabilityScore != 44 {
		t.Fatalf("expected pump-A score 44, got %v", top.VulnerabilityScore)
	}
	if top.IncomingConnections != 1 || top.OutgoingConnections != 1 {
		t.Fatalf("unexpected pump-A degrees: %+v", top)
	}
	if top.RiskLevel != "medium" {
		t.Fatalf("expected pump-A risk medium, got %s", top.RiskLevel)
	}

	prev := 101.0
	for _, n := range report.Nodes {
		if n.VulnerabilityScore < 0 || n.VulnerabilityScore > 100 {
			t.Fatalf("score out of range for %s: %v", n.NodeID, n.VulnerabilityScore)
		}
		if n.VulnerabilityScore > prev {
			t.Fatalf("ranking not sorted descending at %s", n.NodeID)
		}
		prev = n.VulnerabilityScore
	}

	s := report.Summary
	if s.TotalNodes != 4 {
		t.Fatalf("expected summary over 4 nodes, got %d", s.TotalNodes)
	}
	if s.HighRisk+s.MediumRisk+s.LowRisk != s.TotalNodes {
		t.Fatalf("risk buckets do not sum to total: %+v", s)
	}
	if s.HighRisk != 0 || s.MediumRisk != 2 || s.LowRisk != 2 {
		t.Fatalf("unexpected bucket counts: %+v", s)
	}
}

func TestRankVulnerabilityStatusPenalty(t *testing.T) {
	snap := vulnerabilitySnapshot()
	snap.Pumps[0].Status = models.StatusDegraded
	eng := newTestEngine(t, snap, Options{})

	report, err := eng.RankVulnerability()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The degraded status adds 0.2*0.3 = 6 points on the 0-100 scale.
	if report.Nodes[0].NodeID != "pump-A" || report.Nodes[0].VulnerabilityScore != 50 {
		t.Fatalf("expected degraded pump-A at 50, got %+v", report.Nodes[0])
	}
}

func TestRankVulnerabilityOrderIndependentOfSnapshotOrder(t *testing.T) {
	reversed := &models.Snapshot{
		Buildings:  []models.Asset{{ID: "school-A", Kind: "school"}},
		Pipes:      []models.Asset{{ID: "pipe-A", Target: "school-A"}},
		Pumps:      []models.Asset{{ID: "pump-A", Feeds: []string{"pipe-A"}}},
		PowerNodes: []models.Asset{{ID: "power-A", Powers: []string{"pump-A"}}},
	}

	a, err := newTestEngine(t, vulnerabilitySnapshot(), Options{}).RankVulnerability()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := newTestEngine(t, reversed, Options{}).RankVulnerability()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a.Nodes {
		if a.Nodes[i].NodeID != b.Nodes[i].NodeID || a.Nodes[i].VulnerabilityScore != b.Nodes[i].VulnerabilityScore {
			t.Fatalf("ranking depends on record order: %+v vs %+v", a.Nodes[i], b.Nodes[i])
		}
	}
}
