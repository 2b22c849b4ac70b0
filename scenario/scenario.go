package scenario

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrUnknownScenario is returned when a name is not in the table.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Parameter keys understood by the forecaster.
const (
	TariffRate       = "tariff_rate"
	EVSubsidy        = "ev_subsidy"
	GDPGrowth        = "gdp_growth"
	SteelPriceFactor = "steel_price_factor"
	EVShareGrowth    = "ev_share_growth"
)

// Values used when a scenario leaves a key unset.
const (
	DefaultTariffRate       = 0.035
	DefaultEVSubsidy        = 7500
	DefaultGDPGrowth        = 0.02
	DefaultSteelPriceFactor = 1.0
	DefaultEVShareGrowth    = 0.15
)

// Category tags group scenarios for reporting.
const (
	PoliticalUS  = "political_us"
	RawMaterials = "raw_materials"
	EVTransition = "ev_transition"
	PostCovid    = "post_covid"
)

// Scenario is a named set of parameter overrides.
type Scenario struct {
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description"`
	Category    string             `yaml:"category" json:"category"`
	Params      map[string]float64 `yaml:"params" json:"params"`
}

// Param returns the value for key, or def when the key is unset.
func (s Scenario) Param(key string, def float64) float64 {
	if v, ok := s.Params[key]; ok {
		return v
	}
	return def
}

// Tariff returns the US import tariff rate.
func (s Scenario) Tariff() float64 { return s.Param(TariffRate, DefaultTariffRate) }

// Subsidy returns the EV purchase subsidy in dollars.
func (s Scenario) Subsidy() float64 { return s.Param(EVSubsidy, DefaultEVSubsidy) }

// GDP returns the annual GDP growth rate.
func (s Scenario) GDP() float64 { return s.Param(GDPGrowth, DefaultGDPGrowth) }

// SteelFactor returns the multiplier applied to the base steel price.
func (s Scenario) SteelFactor() float64 { return s.Param(SteelPriceFactor, DefaultSteelPriceFactor) }

// EVGrowth returns the yearly EV share increment.
func (s Scenario) EVGrowth() float64 { return s.Param(EVShareGrowth, DefaultEVShareGrowth) }

// Clone returns a deep copy.
func (s Scenario) Clone() Scenario {
	s.Params = maps.Clone(s.Params)
	return s
}

// Table is an ordered collection of scenarios.
type Table struct {
	scenarios []Scenario
}

// NewTable builds a table from the given scenarios. Names must be unique
// and non-empty.
func NewTable(list ...Scenario) (*Table, error) {
	t := &Table{}
	for _, s := range list {
		if err := t.Add(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Defaults returns the nine predefined scenarios.
func Defaults() *Table {
	t, _ := NewTable(
		Scenario{
			Name:        "status_quo",
			Description: "Current policies maintained through 2030",
			Category:    PoliticalUS,
			Params:      map[string]float64{TariffRate: 0.035, EVSubsidy: 7500, GDPGrowth: 0.02, SteelPriceFactor: 1.0},
		},
		Scenario{
			Name:        "protectionist",
			Description: "Reinforced protectionist policy with high tariffs",
			Category:    PoliticalUS,
			Params:      map[string]float64{TariffRate: 0.10, EVSubsidy: 5000, GDPGrowth: 0.015, SteelPriceFactor: 1.2},
		},
		Scenario{
			Name:        "ev_acceleration",
			Description: "Massive acceleration of the electric transition",
			Category:    PoliticalUS,
			Params:      map[string]float64{TariffRate: 0.02, EVSubsidy: 12000, GDPGrowth: 0.025, SteelPriceFactor: 0.9},
		},
		Scenario{
			Name:        "ira_full_implementation",
			Description: "Full implementation of the Inflation Reduction Act",
			Category:    PoliticalUS,
			Params:      map[string]float64{TariffRate: 0.025, EVSubsidy: 10000, GDPGrowth: 0.022, SteelPriceFactor: 0.95},
		},
		Scenario{
			Name:        "raw_materials_crisis",
			Description: "Major crisis in critical raw materials",
			Category:    RawMaterials,
			Params: map[string]float64{
				TariffRate: 0.035, EVSubsidy: 7500, GDPGrowth: 0.01, SteelPriceFactor: 1.5,
				"lithium_price_factor": 2.0, "copper_price_factor": 1.3,
			},
		},
		Scenario{
			Name:        "tech_breakthrough",
			Description: "Technology breakthrough sharply reducing costs",
			Category:    RawMaterials,
			Params: map[string]float64{
				TariffRate: 0.035, EVSubsidy: 7500, GDPGrowth: 0.03, SteelPriceFactor: 0.8,
				"battery_cost_reduction": 0.4,
			},
		},
		Scenario{
			Name:        "slow_ev_transition",
			Description: "Gradual transition towards electric vehicles",
			Category:    EVTransition,
			Params: map[string]float64{
				TariffRate: 0.035, EVSubsidy: 5000, GDPGrowth: 0.02, SteelPriceFactor: 1.0,
				EVShareGrowth: 0.08, "ice_phase_out_year": 2040,
			},
		},
		Scenario{
			Name:        "rapid_ev_transition",
			Description: "Rapid forced transition towards electric vehicles",
			Category:    EVTransition,
			Params: map[string]float64{
				TariffRate: 0.02, EVSubsidy: 15000, GDPGrowth: 0.025, SteelPriceFactor: 0.9,
				EVShareGrowth: 0.25, "ice_ban_year": 2030,
			},
		},
		Scenario{
			Name:        "supply_chain_disruption",
			Description: "Continued supply chain disruptions",
			Category:    PostCovid,
			Params: map[string]float64{
				TariffRate: 0.035, EVSubsidy: 7500, GDPGrowth: 0.015, SteelPriceFactor: 1.3,
				"semiconductor_shortage": 0.4, "supply_disruption_factor": 1.2,
			},
		},
	)
	return t
}

// Len returns the number of scenarios.
func (t *Table) Len() int {
	return len(t.scenarios)
}

// Names returns the scenario names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.scenarios))
	for i, s := range t.scenarios {
		names[i] = s.Name
	}
	return names
}

// Get returns a copy of the named scenario.
func (t *Table) Get(name string) (Scenario, error) {
	i := t.index(name)
	if i < 0 {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return t.scenarios[i].Clone(), nil
}

// All returns copies of every scenario in table order.
func (t *Table) All() []Scenario {
	out := make([]Scenario, len(t.scenarios))
	for i, s := range t.scenarios {
		out[i] = s.Clone()
	}
	return out
}

// Add appends a new scenario.
func (t *Table) Add(s Scenario) error {
	if s.Name == "" {
		return errors.New("scenario: name is required")
	}
	if t.index(s.Name) >= 0 {
		return fmt.Errorf("scenario: duplicate scenario %q", s.Name)
	}
	t.scenarios = append(t.scenarios, s.Clone())
	return nil
}

// Set replaces an existing scenario in place, or appends it if absent.
func (t *Table) Set(s Scenario) error {
	if s.Name == "" {
		return errors.New("scenario: name is required")
	}
	if i := t.index(s.Name); i >= 0 {
		t.scenarios[i] = s.Clone()
		return nil
	}
	t.scenarios = append(t.scenarios, s.Clone())
	return nil
}

// Categories groups scenario names by category, in first-seen order.
func (t *Table) Categories() ([]string, map[string][]string) {
	var order []string
	groups := make(map[string][]string)
	for _, s := range t.scenarios {
		if _, ok := groups[s.Category]; !ok {
			order = append(order, s.Category)
		}
		groups[s.Category] = append(groups[s.Category], s.Name)
	}
	return order, groups
}

func (t *Table) index(name string) int {
	for i, s := range t.scenarios {
		if s.Name == name {
			return i
		}
	}
	return -1
}

type file struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadYAML reads a table from a YAML file with a top-level scenarios list.
func LoadYAML(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios: %w", err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("scenario: %s defines no scenarios", path)
	}
	return NewTable(f.Scenarios...)
}

// SaveYAML writes the table to path, creating parent directories.
func (t *Table) SaveYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}
	data, err := yaml.Marshal(file{Scenarios: t.scenarios})
	if err != nil {
		return fmt.Errorf("failed to marshal scenarios: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenarios: %w", err)
	}
	return nil
}
