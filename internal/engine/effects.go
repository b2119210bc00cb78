package engine

import "impactgraph/pkg/models"

// effectSet is the free-text output for one (node type, failure type) pair.
type effectSet struct {
	effects         []string
	recommendations []string
}

// effectTable keys failure type -> node type. Unmapped combinations fall back
// to genericEffects; that fallback is silent and by design, so unsupported
// failure types degrade to generic guidance rather than erroring.
var effectTable = map[string]map[models.NodeType]effectSet{
	"supply_cut": {
		models.NodeTank: {
			effects:         []string{"Inflow stops; reserve level begins dropping", "Downstream pressure falls as the reserve drains"},
			recommendations: []string{"Switch serviced clusters to backup reserve", "Throttle outflow to stretch remaining volume"},
		},
		models.NodePump: {
			effects:         []string{"Pumping halts; downstream delivery interrupted", "Suction side pressure rises against closed line"},
			recommendations: []string{"Start standby pump if available", "Isolate the pump and open bypass line"},
		},
		models.NodePipe: {
			effects:         []string{"No throughput; connected consumers lose supply", "Stagnant water in the isolated segment"},
			recommendations: []string{"Reroute flow through parallel mains", "Flush the segment before returning to service"},
		},
		models.NodeCluster: {
			effects:         []string{"Households lose running water", "Storage containers deplete within hours"},
			recommendations: []string{"Dispatch water tankers to the cluster", "Issue conservation notice to residents"},
		},
		models.NodeHospital: {
			effects:         []string{"Sterilization and sanitation capacity degraded", "Patient care dependent on stored water"},
			recommendations: []string{"Activate hospital emergency water reserve", "Prioritize tanker resupply to the facility"},
		},
		models.NodeSchool: {
			effects:         []string{"Sanitation facilities unusable", "Drinking water unavailable to students"},
			recommendations: []string{"Deliver bottled water", "Consider early dismissal if outage persists"},
		},
	},
	"demand_loss": {
		models.NodeTank: {
			effects:         []string{"Reduced draw; water ages in the reserve", "Stagnation risk increases with residence time"},
			recommendations: []string{"Schedule turnover flush of the reserve", "Increase residual chlorine monitoring"},
		},
		models.NodePump: {
			effects:         []string{"Load relief; pump cycles against low demand", "Short-cycling wear on the drive"},
			recommendations: []string{"Reduce duty cycle to match demand", "Review pressure setpoints"},
		},
		models.NodePipe: {
			effects:         []string{"Low velocity flow; sediment settles in the main", "Water quality decays in the stagnant reach"},
			recommendations: []string{"Flush low-flow reaches on a shortened schedule"},
		},
	},
	"contamination": {
		models.NodeTank: {
			effects:         []string{"Reserve water quality compromised", "Contaminant carried to every serviced connection"},
			recommendations: []string{"Take the reserve offline and sample immediately", "Issue boil-water advisory for serviced areas"},
		},
		models.NodePipe: {
			effects:         []string{"Contaminant spreads along the flow direction", "Backflow risk at low-pressure junctions"},
			recommendations: []string{"Close isolation valves around the segment", "Flush and re-sample before reopening"},
		},
		models.NodeCluster: {
			effects:         []string{"Unsafe tap water at household connections", "Elevated waterborne illness risk"},
			recommendations: []string{"Issue do-not-drink notice", "Distribute safe water until samples clear"},
		},
		models.NodeHospital: {
			effects:         []string{"Clinical water supply unsafe", "Infection control procedures compromised"},
			recommendations: []string{"Switch to packaged sterile water", "Escalate to district health officer"},
		},
	},
	"control_failure": {
		models.NodeSensor: {
			effects:         []string{"Telemetry lost; monitored asset runs blind", "Anomalies will go undetected until manual checks"},
			recommendations: []string{"Fall back to manual gauge readings", "Replace or recalibrate the sensor"},
		},
		models.NodePump: {
			effects:         []string{"Pump control loop unstable", "Pressure oscillation across the connected line"},
			recommendations: []string{"Switch the pump to manual control", "Inspect controller and valve actuation"},
		},
	},
	"power_outage": {
		models.NodePower: {
			effects:         []string{"Feeder de-energized; wired loads drop immediately", "Pumping and building services lose electricity"},
			recommendations: []string{"Dispatch line crew to the feeder", "Start generators at critical loads"},
		},
		models.NodePump: {
			effects:         []string{"Pump offline on loss of power", "Delivery stops until power or generator backup returns"},
			recommendations: []string{"Connect the pump to backup generation"},
		},
		models.NodeHospital: {
			effects:         []string{"Facility on backup power; limited runtime", "Non-essential loads shed"},
			recommendations: []string{"Verify generator fuel for sustained outage", "Prepare patient transfer contingency"},
		},
		models.NodeBuilding: {
			effects:         []string{"Building without electricity", "Water boosting and heating offline"},
			recommendations: []string{"Notify occupants of expected restoration time"},
		},
	},
	"road_blockage": {
		models.NodeRoad: {
			effects:         []string{"Route impassable; access to served assets delayed", "Repair and relief crews must detour"},
			recommendations: []string{"Publish detour routing", "Clear the blockage with priority equipment"},
		},
	},
}

var genericEffects = effectSet{
	effects:         []string{"Service degradation propagating from upstream failure"},
	recommendations: []string{"Inspect the asset and confirm operational status"},
}

// severityEscalations append one urgency line for high and critical findings.
var severityEscalations = map[models.Severity]string{
	models.SeverityHigh:     "Treat as urgent; schedule response within the hour",
	models.SeverityCritical: "Immediate response required; escalate to duty officer",
}

// consumerTypeAlias folds the consumer building variants onto the building
// entry when no specific entry exists.
func consumerTypeAlias(t models.NodeType) models.NodeType {
	switch t {
	case models.NodeSchool, models.NodeHospital, models.NodeMarket:
		return models.NodeBuilding
	}
	return t
}

// effectsFor resolves the effect/recommendation text for one affected node.
// Lookup order: exact (failure, type), then (failure, building alias), then
// the generic fallback. Severity appends an escalation line; the result is
// always non-empty.
func effectsFor(t models.NodeType, failureType string, severity models.Severity) (effects, recommendations []string) {
	set := genericEffects
	if byType, ok := effectTable[failureType]; ok {
		if s, ok := byType[t]; ok {
			set = s
		} else if s, ok := byType[consumerTypeAlias(t)]; ok {
			set = s
		}
	}

	effects = append([]string(nil), set.effects...)
	recommendations = append([]string(nil), set.recommendations...)
	if line, ok := severityEscalations[severity]; ok {
		recommendations = append(recommendations, line)
	}
	return effects, recommendations
}

// facetWeights scales the 0-100 metric block per node type. Values are the
// share of the node's probability attributed to each impact facet.
var facetWeights = map[models.NodeType]models.ImpactMetrics{
	models.NodeTank:     {SupplyDisruption: 0.95, PressureDrop: 0.70, QualityRisk: 0.60, CascadeRisk: 0.80},
	models.NodePump:     {SupplyDisruption: 0.90, PressureDrop: 0.90, QualityRisk: 0.40, CascadeRisk: 0.85},
	models.NodePipe:     {SupplyDisruption: 0.80, PressureDrop: 0.85, QualityRisk: 0.55, CascadeRisk: 0.60},
	models.NodePower:    {SupplyDisruption: 0.70, PressureDrop: 0.40, QualityRisk: 0.20, CascadeRisk: 0.95},
	models.NodeCluster:  {SupplyDisruption: 0.85, PressureDrop: 0.60, QualityRisk: 0.65, CascadeRisk: 0.40},
	models.NodeSensor:   {SupplyDisruption: 0.20, PressureDrop: 0.20, QualityRisk: 0.50, CascadeRisk: 0.30},
	models.NodeRoad:     {SupplyDisruption: 0.40, PressureDrop: 0.10, QualityRisk: 0.10, CascadeRisk: 0.45},
	models.NodeHospital: {SupplyDisruption: 0.90, PressureDrop: 0.65, QualityRisk: 0.80, CascadeRisk: 0.50},
	models.NodeSchool:   {SupplyDisruption: 0.80, PressureDrop: 0.55, QualityRisk: 0.70, CascadeRisk: 0.40},
	models.NodeMarket:   {SupplyDisruption: 0.75, PressureDrop: 0.50, QualityRisk: 0.65, CascadeRisk: 0.40},
	models.NodeBuilding: {SupplyDisruption: 0.75, PressureDrop: 0.55, QualityRisk: 0.55, CascadeRisk: 0.35},
}

var defaultFacetWeights = models.ImpactMetrics{SupplyDisruption: 0.60, PressureDrop: 0.50, QualityRisk: 0.50, CascadeRisk: 0.50}

func metricsFor(t models.NodeType, probability float64) models.ImpactMetrics {
	w, ok := facetWeights[t]
	if !ok {
		w = defaultFacetWeights
	}
	return models.ImpactMetrics{
		SupplyDisruption: round2(probability * w.SupplyDisruption),
		PressureDrop:     round2(probability * w.PressureDrop),
		QualityRisk:      round2(probability * w.QualityRisk),
		CascadeRisk:      round2(probability * w.CascadeRisk),
	}
}
