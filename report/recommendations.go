package report

import (
	"fmt"
	"strings"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

// NotAvailable is used when no scenario has an ensemble growth figure.
const NotAvailable = "N/A"

// ScenarioGrowth is the ensemble outcome of one scenario over the horizon.
type ScenarioGrowth struct {
	Scenario        string  `json:"scenario"`
	GrowthPct       float64 `json:"growth_pct"`
	FinalProduction float64 `json:"final_production"`
	FinalPrice      float64 `json:"final_price"`
}

// ExecutiveSummary names the best and worst scenarios.
type ExecutiveSummary struct {
	BestScenario    string  `json:"best_scenario"`
	BestGrowth      float64 `json:"best_growth_pct"`
	WorstScenario   string  `json:"worst_scenario"`
	WorstGrowth     float64 `json:"worst_growth_pct"`
	KeyInsight      string  `json:"key_insight"`
	OptimalStrategy string  `json:"optimal_strategy"`
}

// Policy is a recommendation for one policy area.
type Policy struct {
	Area           string `json:"area"`
	Recommendation string `json:"recommendation"`
}

// ManufacturerGroup is a strategy shared by a group of manufacturers.
type ManufacturerGroup struct {
	Group     string   `json:"group"`
	Companies []string `json:"companies"`
	Strategy  string   `json:"strategy"`
	Focus     string   `json:"focus"`
}

// Risk is a risk with its mitigation actions.
type Risk struct {
	Risk        string   `json:"risk"`
	Probability string   `json:"probability"`
	Impact      string   `json:"impact"`
	Mitigation  []string `json:"mitigation"`
}

// Opportunity is a growth opportunity.
type Opportunity struct {
	Opportunity string `json:"opportunity"`
	MarketSize  string `json:"market_size"`
	Strategy    string `json:"strategy"`
	Timeline    string `json:"timeline"`
}

// Recommendations is the strategic recommendation block of a run.
type Recommendations struct {
	ExecutiveSummary    ExecutiveSummary    `json:"executive_summary"`
	ScenarioGrowth      []ScenarioGrowth    `json:"scenario_growth"`
	StrategicPriorities []string            `json:"strategic_priorities"`
	Policies            []Policy            `json:"policy_recommendations"`
	Manufacturers       []ManufacturerGroup `json:"manufacturer_specific"`
	Risks               []Risk              `json:"risk_mitigation"`
	Opportunities       []Opportunity       `json:"future_opportunities"`
}

// Recommend ranks the scenarios by ensemble growth and attaches the fixed
// strategy tables.
func Recommend(res *forecast.Result) *Recommendations {
	r := &Recommendations{
		ExecutiveSummary: ExecutiveSummary{
			BestScenario:    NotAvailable,
			WorstScenario:   NotAvailable,
			KeyInsight:      "A gradual electric transition outperforms the extreme approaches",
			OptimalStrategy: "Adopt a balanced approach combining innovation and stability",
		},
		StrategicPriorities: []string{
			"Closely monitor raw material prices, the most critical impact identified",
			"Plan a gradual rather than accelerated electric transition",
			"Diversify supply chains geographically",
			"Invest in resilience rather than pure efficiency",
			"Develop technology partnerships to reduce risk",
		},
		Policies: []Policy{
			{Area: "us_policies", Recommendation: "Keep EV subsidies between $7,500 and $10,000 for the best balance"},
			{Area: "trade_policies", Recommendation: "Very high tariffs (above 5%) can be counterproductive"},
			{Area: "infrastructure", Recommendation: "Invest heavily in charging infrastructure ($50B over 5 years)"},
			{Area: "international", Recommendation: "Negotiate free trade agreements for critical raw materials"},
		},
		Manufacturers: []ManufacturerGroup{
			{
				Group:     "leaders",
				Companies: []string{"Toyota", "Volkswagen"},
				Strategy:  "Keep the dominant position through continuous innovation",
				Focus:     "Heavy investment in the electric transition and global partnerships",
			},
			{
				Group:     "challengers",
				Companies: []string{"Ford", "GM"},
				Strategy:  "Identify fast-growing niches",
				Focus:     "Specialise on specific segments and strategic alliances",
			},
			{
				Group:     "emerging",
				Companies: []string{"Hyundai-Kia", "Stellantis"},
				Strategy:  "Focus on excellence in niches",
				Focus:     "Develop differentiating technologies and consider acquisitions",
			},
		},
		Risks: []Risk{
			{
				Risk:        "Raw material price volatility",
				Probability: "High",
				Impact:      "Critical",
				Mitigation: []string{
					"Long-term supply contracts",
					"Geographic diversification of suppliers",
					"Investment in recycling",
					"Development of alternative materials",
				},
			},
			{
				Risk:        "Supply chain disruptions",
				Probability: "Medium",
				Impact:      "High",
				Mitigation: []string{
					"Full supplier mapping",
					"Strategic safety stocks",
					"Partnerships with local suppliers",
				},
			},
		},
		Opportunities: []Opportunity{
			{Opportunity: "Commercial electric vehicles", MarketSize: "$200B by 2030", Strategy: "Partnerships with logistics companies", Timeline: "2024-2026"},
			{Opportunity: "Autonomous mobility services", MarketSize: "$100B by 2030", Strategy: "In-house development plus acquisitions", Timeline: "2026-2030"},
			{Opportunity: "Solid-state batteries", MarketSize: "Cost revolution", Strategy: "Intensive R&D and technology partnerships", Timeline: "2025-2028"},
		},
	}

	first := true
	for _, name := range res.Scenarios {
		growth, ok := res.Growth(name)
		if !ok {
			continue
		}
		ens, _ := res.Series(name, training.Ensemble)
		last := len(ens.Production) - 1
		r.ScenarioGrowth = append(r.ScenarioGrowth, ScenarioGrowth{
			Scenario:        name,
			GrowthPct:       growth,
			FinalProduction: ens.Production[last],
			FinalPrice:      ens.Price[last],
		})

		es := &r.ExecutiveSummary
		if first || growth > es.BestGrowth {
			es.BestScenario, es.BestGrowth = name, growth
		}
		if first || growth < es.WorstGrowth {
			es.WorstScenario, es.WorstGrowth = name, growth
		}
		first = false
	}
	return r
}

// DisplayName turns an identifier such as status_quo into "Status Quo".
func DisplayName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatGrowth renders a scenario with its growth, e.g. "Status Quo (+4.2%)".
func FormatGrowth(name string, growth float64) string {
	if name == NotAvailable {
		return name
	}
	return fmt.Sprintf("%s (%+.1f%%)", DisplayName(name), growth)
}
