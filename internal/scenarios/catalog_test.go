package scenarios

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"impactgraph/pkg/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	list := c.List()
	if len(list) != 6 {
		t.Fatalf("expected 6 built-in scenarios, got %d", len(list))
	}
	if !sort.SliceIsSorted(list, func(i, j int) bool { return list[i].ID < list[j].ID }) {
		t.Fatalf("expected scenarios ordered by id")
	}

	s, ok := c.Get("supply_cut")
	if !ok {
		t.Fatalf("expected supply_cut in the built-in catalog")
	}
	if s.DefaultSeverity != models.SeverityHigh {
		t.Fatalf("expected supply_cut default severity high, got %s", s.DefaultSeverity)
	}
	if !s.AppliesToType(models.NodePump) || s.AppliesToType(models.NodeRoad) {
		t.Fatalf("unexpected supply_cut applicability: %+v", s.AppliesTo)
	}

	c2, ok := Default().Get("contamination")
	if !ok || c2.DefaultSeverity != models.SeverityCritical {
		t.Fatalf("expected contamination to default critical, got %+v", c2)
	}
}

func TestLoadNormalizesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yml")
	doc := `
version: 1
scenarios:
  - id: valve_stuck
    label: Stuck Valve
    applies_to: [PIPE, " pump "]
    default_severity: high
  - label: Nameless
  - id: valve_stuck
    label: Duplicate
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := c.List()
	if len(list) != 2 {
		t.Fatalf("expected duplicate id dropped, got %d scenarios", len(list))
	}

	s, ok := c.Get("valve_stuck")
	if !ok {
		t.Fatalf("expected valve_stuck")
	}
	if s.Label != "Stuck Valve" {
		t.Fatalf("expected the first entry to win, got %q", s.Label)
	}
	if len(s.AppliesTo) != 2 || s.AppliesTo[0] != models.NodePipe || s.AppliesTo[1] != models.NodePump {
		t.Fatalf("expected lowercased trimmed types, got %v", s.AppliesTo)
	}

	synth, ok := c.Get("scenario-2")
	if !ok {
		t.Fatalf("expected a synthesized id for the nameless entry")
	}
	if synth.DefaultSeverity != models.SeverityMedium {
		t.Fatalf("expected missing severity to default medium, got %s", synth.DefaultSeverity)
	}
	if len(synth.AppliesTo) != 0 || !synth.AppliesToType(models.NodeTank) {
		t.Fatalf("expected an empty applies_to list to match every type")
	}
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	if err := os.WriteFile(path, []byte("version: 1\nscenarios: []\n"), 0644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an empty catalog")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
