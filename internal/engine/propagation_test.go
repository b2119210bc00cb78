package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"impactgraph/pkg/models"
)

// chainSnapshot wires the linear supply chain
// tank-A -> pump-A -> pipe-A -> school-A.
func chainSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Tanks: []models.Asset{
			{ID: "tank-A", Name: "Main Tank", Serves: []string{"pump-A"}},
		},
		Pumps: []models.Asset{
			{ID: "pump-A", Name: "Borehole Pump", Feeds: []string{"pipe-A"}},
		},
		Pipes: []models.Asset{
			{ID: "pipe-A", Name: "Main Line", Target: "school-A"},
		},
		Buildings: []models.Asset{
			{ID: "school-A", Name: "Primary School", Kind: "school", Attributes: map[string]interface{}{"occupancy": 240.0}},
		},
	}
}

func newTestEngine(t *testing.T, snap *models.Snapshot, opts Options) *Engine {
	t.Helper()
	eng := New(nil, opts)
	eng.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	eng.newID = func() string { return "pred-0001" }
	if snap != nil {
		res := eng.Initialize(snap)
		if len(res.Diagnostics) != 0 {
			t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
		}
	}
	return eng
}

func TestPredictImpactNotInitialized(t *testing.T) {
	eng := newTestEngine(t, nil, Options{})

	// The uninitialized check wins even over invalid arguments.
	if _, err := eng.PredictImpact("", "", ""); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := eng.RankVulnerability(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from ranking, got %v", err)
	}
	if _, err := eng.RunWhatIf(nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from what-if, got %v", err)
	}
}

func TestPredictImpactUnknownNode(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{})
	if _, err := eng.PredictImpact("ghost", "supply_cut", models.SeverityHigh); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictImpactInvalidArguments(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{})
	if _, err := eng.PredictImpact("", "supply_cut", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank node id, got %v", err)
	}
	if _, err := eng.PredictImpact("pump-A", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank failure type, got %v", err)
	}
	if _, err := eng.PredictImpact("pump-A", "supply_cut", "catastrophic"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown severity, got %v", err)
	}
}

func TestPredictImpactPropagatesDownstreamOnly(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{})

	pred, err := eng.PredictImpact("pump-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pred.PredictionID != "pred-0001" {
		t.Fatalf("unexpected prediction id %q", pred.PredictionID)
	}
	if pred.TotalAffected != 2 {
		t.Fatalf("expected 2 affected nodes, got %d", pred.TotalAffected)
	}
	for _, an := range pred.AffectedNodes {
		if an.NodeID == "tank-A" {
			t.Fatalf("upstream tank must not be affected by a downstream failure")
		}
		if an.NodeID == "pump-A" {
			t.Fatalf("the source node must not appear in its own affected list")
		}
	}

	byID := make(map[string]models.AffectedNode, len(pred.AffectedNodes))
	for _, an := range pred.AffectedNodes {
		byID[an.NodeID] = an
	}

	pipe := byID["pipe-A"]
	if pipe.Depth != 1 || pipe.Severity != models.SeverityCritical {
		t.Fatalf("expected pipe-A at depth 1 critical, got %+v", pipe)
	}
	if pipe.Probability != 54 {
		t.Fatalf("expected pipe-A probability 54, got %v", pipe.Probability)
	}
	if pipe.TimeToImpactHours != 2 {
		t.Fatalf("expected pipe-A time-to-impact 2h, got %v", pipe.TimeToImpactHours)
	}

	school := byID["school-A"]
	if school.Depth != 2 || school.Severity != models.SeverityHigh {
		t.Fatalf("expected school-A at depth 2 high, got %+v", school)
	}
	if school.Probability != 32.4 {
		t.Fatalf("expected school-A probability 32.4, got %v", school.Probability)
	}
	if school.TimeToImpactHours != 8 {
		t.Fatalf("expected school-A time-to-impact 8h, got %v", school.TimeToImpactHours)
	}
	if len(school.Effects) == 0 || len(school.Recommendations) == 0 {
		t.Fatalf("expected non-empty effects and recommendations, got %+v", school)
	}

	wantPath := []models.PropagationStep{
		{FromID: "pump-A", ToID: "pipe-A", Depth: 1},
		{FromID: "pipe-A", ToID: "school-A", Depth: 2},
	}
	if !reflect.DeepEqual(pred.PropagationPath, wantPath) {
		t.Fatalf("unexpected propagation path: %+v", pred.PropagationPath)
	}

	if pred.CriticalCount != 1 || pred.HighCount != 1 {
		t.Fatalf("expected 1 critical and 1 high, got %d/%d", pred.CriticalCount, pred.HighCount)
	}
	oa := pred.OverallAssessment
	if oa.RiskLevel != models.SeverityCritical {
		t.Fatalf("expected overall risk critical, got %s", oa.RiskLevel)
	}
	if oa.AffectedPopulation != 240 {
		t.Fatalf("expected affected population 240, got %d", oa.AffectedPopulation)
	}
	if oa.EstimatedRecoveryTime != "48-72 hours" {
		t.Fatalf("unexpected recovery estimate %q", oa.EstimatedRecoveryTime)
	}
	if len(oa.PriorityActions) == 0 {
		t.Fatalf("expected priority actions")
	}
	last := oa.PriorityActions[len(oa.PriorityActions)-1]
	if last != "Notify approximately 240 affected residents" {
		t.Fatalf("expected population notice last, got %q", last)
	}
}

func TestPredictImpactProbabilityFloorPrunesBranch(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{})

	// Low severity: 20 -> 12 -> 7.2 -> 4.32; the school drops below the 5%
	// floor at depth 3 and is excluded.
	pred, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.TotalAffected != 2 {
		t.Fatalf("expected the floor to exclude school-A, got %d affected", pred.TotalAffected)
	}
	for _, an := range pred.AffectedNodes {
		if an.NodeID == "school-A" {
			t.Fatalf("school-A below the probability floor must be excluded")
		}
	}
}

func TestPredictImpactRespectsMaxDepth(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{MaxDepth: 1})

	pred, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.TotalAffected != 1 {
		t.Fatalf("expected exactly the depth-1 node, got %d affected", pred.TotalAffected)
	}
	if pred.AffectedNodes[0].NodeID != "pump-A" {
		t.Fatalf("expected pump-A at depth 1, got %s", pred.AffectedNodes[0].NodeID)
	}
}

func TestPredictImpactProbabilityNeverIncreasesWithDepth(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{MaxDepth: 5, MinProbability: 0.001})

	pred, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	best := 100.0
	for _, an := range pred.AffectedNodes {
		if an.Probability > best {
			t.Fatalf("probability increased with depth at %s: %v > %v", an.NodeID, an.Probability, best)
		}
		best = an.Probability
	}
}

func TestPredictImpactKeepsStrongestPathInDiamond(t *testing.T) {
	// tank-A fans out to two pumps feeding the same pipe; pump-B's edges are
	// weighted 0.5, so the path through pump-A wins the merge.
	snap := &models.Snapshot{
		Tanks: []models.Asset{{ID: "tank-A", Serves: []string{"pump-A", "pump-B"}}},
		Pumps: []models.Asset{
			{ID: "pump-A", Feeds: []string{"pipe-A"}},
			{ID: "pump-B", Weight: 0.5, Feeds: []string{"pipe-A"}},
		},
		Pipes: []models.Asset{{ID: "pipe-A"}},
	}
	eng := newTestEngine(t, snap, Options{})

	pred, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var pipe *models.AffectedNode
	for i := range pred.AffectedNodes {
		if pred.AffectedNodes[i].NodeID == "pipe-A" {
			pipe = &pred.AffectedNodes[i]
		}
	}
	if pipe == nil {
		t.Fatalf("expected pipe-A to be affected")
	}
	// 90 * 0.6 = 54 at the pumps, then 54 * 0.6 * 1.0 = 32.4 through pump-A
	// versus 54 * 0.6 * 0.5 = 16.2 through pump-B.
	if pipe.Probability != 32.4 {
		t.Fatalf("expected strongest-path probability 32.4, got %v", pipe.Probability)
	}

	var merge *models.PropagationStep
	for i := range pred.PropagationPath {
		if pred.PropagationPath[i].ToID == "pipe-A" {
			merge = &pred.PropagationPath[i]
		}
	}
	if merge == nil || merge.FromID != "pump-A" {
		t.Fatalf("expected the merge step to come from pump-A, got %+v", merge)
	}
}

func TestPredictImpactDeterministic(t *testing.T) {
	eng := newTestEngine(t, chainSnapshot(), Options{})

	first, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.PredictImpact("tank-A", "supply_cut", models.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced different predictions")
	}
}

func TestPowerOutageHalvesTimeToImpact(t *testing.T) {
	snap := &models.Snapshot{
		PowerNodes: []models.Asset{{ID: "power-A", Powers: []string{"pump-A"}}},
		Pumps:      []models.Asset{{ID: "pump-A"}},
	}
	eng := newTestEngine(t, snap, Options{})

	pred, err := eng.PredictImpact("power-A", "power_outage", models.SeverityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.TotalAffected != 1 {
		t.Fatalf("expected 1 affected node, got %d", pred.TotalAffected)
	}
	// Pump base is 2h/hop; electrical failures travel in half the time.
	if got := pred.AffectedNodes[0].TimeToImpactHours; got != 1 {
		t.Fatalf("expected 1h time-to-impact, got %v", got)
	}
}

func TestSeverityAtDepth(t *testing.T) {
	cases := []struct {
		source models.Severity
		depth  int
		want   models.Severity
	}{
		{models.SeverityCritical, 1, models.SeverityCritical},
		{models.SeverityCritical, 2, models.SeverityHigh},
		{models.SeverityCritical, 3, models.SeverityMedium},
		{models.SeverityCritical, 4, models.SeverityLow},
		{models.SeverityHigh, 1, models.SeverityHigh},
		{models.SeverityMedium, 2, models.SeverityLow},
		{models.SeverityLow, 1, models.SeverityLow},
		{models.SeverityLow, 5, models.SeverityLow},
	}
	for _, c := range cases {
		if got := severityAtDepth(c.source, c.depth); got != c.want {
			t.Fatalf("severityAtDepth(%s, %d) = %s, want %s", c.source, c.depth, got, c.want)
		}
	}
}

func TestPriorityActionsOrderPowerBeforeWater(t *testing.T) {
	pred := &models.ImpactPrediction{
		AffectedNodes: []models.AffectedNode{
			{NodeID: "tank-A", NodeType: models.NodeTank, NodeName: "Main Tank", Severity: models.SeverityHigh},
			{NodeID: "pump-A", NodeType: models.NodePump, NodeName: "Borehole Pump", Severity: models.SeverityHigh},
			{NodeID: "pipe-A", NodeType: models.NodePipe, NodeName: "Main Line", Severity: models.SeverityCritical},
		},
	}

	actions := priorityActions(pred)
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %v", actions)
	}
	if actions[0] != "Inspect and repair Main Line (pipe-A)" {
		t.Fatalf("expected the critical node first, got %q", actions[0])
	}
	if actions[1] != "Restore pumping at Borehole Pump (pump-A)" {
		t.Fatalf("expected power-family before water at equal severity, got %q", actions[1])
	}
}
