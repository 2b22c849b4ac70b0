package panel

import "time"

// Category is a vehicle category.
type Category string

// Vehicle categories.
const (
	PassengerCars      Category = "Passenger_Cars"
	CommercialVehicles Category = "Commercial_Vehicles"
	ElectricVehicles   Category = "Electric_Vehicles"
)

// Region is a production region.
type Region string

// Production regions.
const (
	NorthAmerica Region = "North_America"
	Europe       Region = "Europe"
	AsiaPacific  Region = "Asia_Pacific"
	China        Region = "China"
)

var (
	// Manufacturers lists the manufacturers in generation order.
	Manufacturers = []string{"Toyota", "Volkswagen", "Ford", "Hyundai-Kia", "Stellantis", "GM"}
	// Categories lists the categories in generation order.
	Categories = []Category{PassengerCars, CommercialVehicles, ElectricVehicles}
	// Regions lists the regions in generation order.
	Regions = []Region{NorthAmerica, Europe, AsiaPacific, China}
)

// Observation is one row of the panel.
type Observation struct {
	Date             time.Time `json:"date"`
	Manufacturer     string    `json:"manufacturer"`
	Category         Category  `json:"category"`
	Region           Region    `json:"region"`
	ProductionVolume int       `json:"production_volume"`
	AveragePrice     float64   `json:"average_price"`
	GDPGrowth        float64   `json:"gdp_growth"`
	SteelPrice       float64   `json:"steel_price"`
	OilPrice         float64   `json:"oil_price"`
	InterestRate     float64   `json:"interest_rate"`
	USTariffRate     float64   `json:"us_tariff_rate"`
	USEVSubsidy      float64   `json:"us_ev_subsidy"`
	EVShare          float64   `json:"ev_share"`
}

// Features returns the covariates of the observation.
func (o Observation) Features() Features {
	return Features{
		GDPGrowth:    o.GDPGrowth,
		SteelPrice:   o.SteelPrice,
		USTariffRate: o.USTariffRate,
		USEVSubsidy:  o.USEVSubsidy,
		EVShare:      o.EVShare,
		OilPrice:     o.OilPrice,
		InterestRate: o.InterestRate,
	}
}

// FeatureNames is the fixed covariate order used by the row-level models.
var FeatureNames = []string{
	"GDP_Growth",
	"Steel_Price",
	"US_Tariff_Rate",
	"US_EV_Subsidy",
	"EV_Share",
	"Oil_Price",
	"Interest_Rate",
}

// Features is one covariate row.
type Features struct {
	GDPGrowth    float64 `json:"GDP_Growth"`
	SteelPrice   float64 `json:"Steel_Price"`
	USTariffRate float64 `json:"US_Tariff_Rate"`
	USEVSubsidy  float64 `json:"US_EV_Subsidy"`
	EVShare      float64 `json:"EV_Share"`
	OilPrice     float64 `json:"Oil_Price"`
	InterestRate float64 `json:"Interest_Rate"`
}

// Vector returns the covariates in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{
		f.GDPGrowth,
		f.SteelPrice,
		f.USTariffRate,
		f.USEVSubsidy,
		f.EVShare,
		f.OilPrice,
		f.InterestRate,
	}
}

// Panel is an ordered, read-only collection of observations.
type Panel struct {
	Observations []Observation
}

// Len returns the number of observations.
func (p *Panel) Len() int {
	return len(p.Observations)
}

// LastFeatures returns the covariates of the final observation.
func (p *Panel) LastFeatures() (Features, bool) {
	if len(p.Observations) == 0 {
		return Features{}, false
	}
	return p.Observations[len(p.Observations)-1].Features(), true
}

// Span returns the first and last observation dates.
func (p *Panel) Span() (first, last time.Time) {
	for i, o := range p.Observations {
		if i == 0 || o.Date.Before(first) {
			first = o.Date
		}
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return first, last
}
