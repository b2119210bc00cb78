package models

// Severity is the qualitative failure magnitude attached to a source failure
// and to each derived affected node.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank orders severities low=0 .. critical=3. Unknown values rank below low.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// SeverityFromRank maps a rank back to a severity, clamping out-of-range
// values to the nearest level.
func SeverityFromRank(rank int) Severity {
	switch {
	case rank <= 0:
		return SeverityLow
	case rank == 1:
		return SeverityMedium
	case rank == 2:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}
