package graph

import (
	"encoding/json"
	"fmt"

	"impactgraph/pkg/models"
)

// snapshotCategories maps wire category keys to snapshot fields, in the fixed
// order the builder processes them.
var snapshotCategories = []string{
	"tanks", "pumps", "pipes", "roads", "buildings", "powerNodes", "sensors", "clusters",
}

// ParseSnapshot decodes a raw snapshot document category by category. A
// category that is not an array is skipped with a diagnostic instead of
// failing the whole snapshot; unknown categories are ignored.
func ParseSnapshot(data []byte) (*models.Snapshot, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse snapshot document: %w", err)
	}

	snap := &models.Snapshot{}
	var diags []string
	for _, category := range snapshotCategories {
		payload, ok := raw[category]
		if !ok {
			continue
		}
		var assets []models.Asset
		if err := json.Unmarshal(payload, &assets); err != nil {
			diags = append(diags, fmt.Sprintf("category %q is not an asset array; skipped", category))
			continue
		}
		switch category {
		case "tanks":
			snap.Tanks = assets
		case "pumps":
			snap.Pumps = assets
		case "pipes":
			snap.Pipes = assets
		case "roads":
			snap.Roads = assets
		case "buildings":
			snap.Buildings = assets
		case "powerNodes":
			snap.PowerNodes = assets
		case "sensors":
			snap.Sensors = assets
		case "clusters":
			snap.Clusters = assets
		}
	}
	return snap, diags, nil
}
