package scenarios

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"impactgraph/pkg/models"
)

// Catalog holds the failure-scenario reference table, keyed by id.
type Catalog struct {
	list []models.FailureScenario
	byID map[string]models.FailureScenario
}

// Default returns the built-in catalog. The failure modes mirror how village
// infrastructure actually breaks: supply cuts, demand loss, contamination,
// control failures, power outages, and road blockage.
func Default() *Catalog {
	return newCatalog([]models.FailureScenario{
		{
			ID:              "supply_cut",
			Label:           "Supply Cut",
			Description:     "A source or pumping asset stops delivering water downstream.",
			AppliesTo:       []models.NodeType{models.NodeTank, models.NodePump, models.NodePipe},
			DefaultSeverity: models.SeverityHigh,
		},
		{
			ID:              "demand_loss",
			Label:           "Demand Loss",
			Description:     "A consumer endpoint drops off, leaving upstream assets with stagnating load.",
			AppliesTo:       []models.NodeType{models.NodeCluster, models.NodeBuilding, models.NodeSchool, models.NodeHospital, models.NodeMarket},
			DefaultSeverity: models.SeverityMedium,
		},
		{
			ID:              "contamination",
			Label:           "Contamination",
			Description:     "A water quality issue spreading along the flow direction.",
			AppliesTo:       []models.NodeType{models.NodeTank, models.NodePipe},
			DefaultSeverity: models.SeverityCritical,
		},
		{
			ID:              "control_failure",
			Label:           "Control Failure",
			Description:     "A valve or sensor malfunction removing monitoring and control visibility.",
			AppliesTo:       []models.NodeType{models.NodeSensor, models.NodePump},
			DefaultSeverity: models.SeverityMedium,
		},
		{
			ID:              "power_outage",
			Label:           "Power Outage",
			Description:     "A power node failure cutting electricity to pumps and buildings.",
			AppliesTo:       []models.NodeType{models.NodePower},
			DefaultSeverity: models.SeverityHigh,
		},
		{
			ID:              "road_blockage",
			Label:           "Road Blockage",
			Description:     "A road becoming impassable, delaying access to served assets.",
			AppliesTo:       []models.NodeType{models.NodeRoad},
			DefaultSeverity: models.SeverityMedium,
		},
	})
}

type catalogFile struct {
	Version   int                      `yaml:"version"`
	Scenarios []models.FailureScenario `yaml:"scenarios"`
}

// Load reads a scenario catalog from a YAML file, normalizing entries the
// same way rule files are: missing ids are synthesized, missing severities
// default to medium.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenario catalog: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario catalog %s defines no scenarios", path)
	}

	for i := range file.Scenarios {
		s := &file.Scenarios[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			s.ID = fmt.Sprintf("scenario-%d", i+1)
		}
		if strings.TrimSpace(s.Label) == "" {
			s.Label = s.ID
		}
		if !s.DefaultSeverity.Valid() {
			s.DefaultSeverity = models.SeverityMedium
		}
		clean := make([]models.NodeType, 0, len(s.AppliesTo))
		for _, t := range s.AppliesTo {
			v := models.NodeType(strings.ToLower(strings.TrimSpace(string(t))))
			if v != "" {
				clean = append(clean, v)
			}
		}
		s.AppliesTo = clean
	}
	return newCatalog(file.Scenarios), nil
}

func newCatalog(list []models.FailureScenario) *Catalog {
	byID := make(map[string]models.FailureScenario, len(list))
	kept := make([]models.FailureScenario, 0, len(list))
	for _, s := range list {
		if _, dup := byID[s.ID]; dup {
			continue
		}
		byID[s.ID] = s
		kept = append(kept, s)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID < kept[j].ID })
	return &Catalog{list: kept, byID: byID}
}

// List returns all scenarios ordered by id.
func (c *Catalog) List() []models.FailureScenario {
	return append([]models.FailureScenario(nil), c.list...)
}

// Get looks up a scenario by id.
func (c *Catalog) Get(id string) (models.FailureScenario, bool) {
	s, ok := c.byID[id]
	return s, ok
}
