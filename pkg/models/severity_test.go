package models

import "testing"

func TestSeverityRankOrdering(t *testing.T) {
	ordered := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Fatalf("expected %s to rank above %s", ordered[i], ordered[i-1])
		}
	}
	if Severity("catastrophic").Rank() != -1 {
		t.Fatalf("expected unknown severities to rank below low")
	}
	if Severity("catastrophic").Valid() {
		t.Fatalf("expected unknown severities to be invalid")
	}
}

func TestSeverityFromRankClamps(t *testing.T) {
	cases := []struct {
		rank int
		want Severity
	}{
		{-3, SeverityLow},
		{0, SeverityLow},
		{1, SeverityMedium},
		{2, SeverityHigh},
		{3, SeverityCritical},
		{9, SeverityCritical},
	}
	for _, c := range cases {
		if got := SeverityFromRank(c.rank); got != c.want {
			t.Fatalf("SeverityFromRank(%d) = %s, want %s", c.rank, got, c.want)
		}
	}
}

func TestNumericAttribute(t *testing.T) {
	n := &Node{Attributes: map[string]interface{}{
		"population": 350.0,
		"capacity":   10000,
		"label":      "east",
	}}
	if got := n.NumericAttribute("population"); got != 350 {
		t.Fatalf("expected 350, got %v", got)
	}
	if got := n.NumericAttribute("capacity"); got != 10000 {
		t.Fatalf("expected int attribute to read as 10000, got %v", got)
	}
	if got := n.NumericAttribute("label"); got != 0 {
		t.Fatalf("expected non-numeric attribute to read as 0, got %v", got)
	}
	if got := n.NumericAttribute("missing", "population"); got != 350 {
		t.Fatalf("expected fallback key to resolve, got %v", got)
	}
}
