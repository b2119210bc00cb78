package models

// FailureScenario is static reference data describing one failure mode and
// the node types it applies to. Scenarios are never derived from the graph.
type FailureScenario struct {
	ID              string     `json:"id" yaml:"id"`
	Label           string     `json:"label" yaml:"label"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	AppliesTo       []NodeType `json:"appliesTo" yaml:"applies_to"`
	DefaultSeverity Severity   `json:"defaultSeverity" yaml:"default_severity"`
}

// AppliesToType reports whether the scenario lists the given node type. An
// empty AppliesTo list means the scenario applies to every type.
func (s FailureScenario) AppliesToType(t NodeType) bool {
	if len(s.AppliesTo) == 0 {
		return true
	}
	for _, at := range s.AppliesTo {
		if at == t {
			return true
		}
	}
	return false
}

// WhatIfScenario is one requested what-if run. An empty Severity falls back
// to the catalog default for the failure type.
type WhatIfScenario struct {
	NodeID      string   `json:"nodeId"`
	FailureType string   `json:"failureType"`
	Severity    Severity `json:"severity,omitempty"`
	Label       string   `json:"label,omitempty"`
}
