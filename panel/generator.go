package panel

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config controls panel generation.
type Config struct {
	Start  time.Time `yaml:"start" json:"start"`
	Months int       `yaml:"months" json:"months"`
	// Seed fixes the noise stream. Zero draws a seed from the clock.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the 2010-01 to 2023-12 grid with seed 42.
func DefaultConfig() Config {
	return Config{
		Start:  time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months: 168,
		Seed:   42,
	}
}

var (
	baseVolume = map[string]float64{
		"Toyota":      120000,
		"Volkswagen":  110000,
		"Ford":        90000,
		"Hyundai-Kia": 80000,
		"Stellantis":  75000,
		"GM":          95000,
	}
	manufacturerPremium = map[string]float64{
		"Toyota":      1.10,
		"Volkswagen":  1.15,
		"Ford":        1.00,
		"Hyundai-Kia": 0.90,
		"Stellantis":  1.05,
		"GM":          1.00,
	}
	regionFactor = map[Region]float64{
		NorthAmerica: 0.25,
		Europe:       0.30,
		AsiaPacific:  0.35,
		China:        0.40,
	}
	basePrice = map[Category]float64{
		PassengerCars:      25000,
		CommercialVehicles: 45000,
		ElectricVehicles:   40000,
	}
)

const (
	baseYear      = 2010
	minProduction = 1000
)

// macro describes a covariate drawn as base + amplitude*sin(2*pi*i/cycle) + N(0, sd).
type macro struct {
	base, amplitude, cycle, sd, floor float64
}

var (
	gdpMacro      = macro{base: 0.02, amplitude: 0.01, cycle: 60, sd: 0.005, floor: math.Inf(-1)}
	steelMacro    = macro{base: 700, amplitude: 50, cycle: 36, sd: 30, floor: 400}
	oilMacro      = macro{base: 70, amplitude: 20, cycle: 24, sd: 10, floor: 30}
	interestMacro = macro{base: 0.03, amplitude: 0.02, cycle: 84, sd: 0.005, floor: 0.001}
)

func (m macro) draw(rng *rand.Rand, i int) float64 {
	v := m.base + m.amplitude*math.Sin(2*math.Pi*float64(i)/m.cycle) + rng.NormFloat64()*m.sd
	return math.Max(v, m.floor)
}

// TariffRate returns the US tariff rate in force during year.
func TariffRate(year int) float64 {
	switch {
	case year < 2018:
		return 0.025
	case year < 2021:
		return 0.05
	default:
		return 0.035
	}
}

// EVSubsidy returns the US EV subsidy in force during year.
func EVSubsidy(year int) float64 {
	if year < 2022 {
		return 7500
	}
	return 7500 + 1000*float64(year-2022)
}

// EVShare returns the logistic EV share for year, with asymptote 0.4.
func EVShare(year int) float64 {
	return 0.4 / (1 + math.Exp(-0.3*float64(year-baseYear-8)))
}

func categoryFactor(c Category, i, months int) float64 {
	switch c {
	case CommercialVehicles:
		return 0.3
	case ElectricVehicles:
		return 0.05 + float64(i)/float64(months)*0.30
	default:
		return 1.0
	}
}

// Generate builds the full panel. Rows are produced month by month, then
// by manufacturer, category and region. Each row consumes six normal
// draws in a fixed order: volume, price, GDP, steel, oil and interest.
func Generate(cfg Config) (*Panel, error) {
	if cfg.Months <= 0 {
		return nil, errors.New("months must be positive")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(cfg.Start.Year(), cfg.Start.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows := make([]Observation, 0, cfg.Months*len(Manufacturers)*len(Categories)*len(Regions))
	for i := 0; i < cfg.Months; i++ {
		date := start.AddDate(0, i, 0)
		year := date.Year()
		trend := 1 + float64(i)/float64(cfg.Months)*0.15
		season := 1 + 0.1*math.Sin(2*math.Pi*float64(i)/12)
		inflation := math.Pow(1.02, float64(year-baseYear))

		for _, m := range Manufacturers {
			for _, c := range Categories {
				for _, r := range Regions {
					noise := 1 + rng.NormFloat64()*0.08
					volume := int(baseVolume[m] * categoryFactor(c, i, cfg.Months) * regionFactor[r] * trend * season * noise)
					priceNoise := 1 + rng.NormFloat64()*0.03

					rows = append(rows, Observation{
						Date:             date,
						Manufacturer:     m,
						Category:         c,
						Region:           r,
						ProductionVolume: max(volume, minProduction),
						AveragePrice:     math.Max(round(basePrice[c]*manufacturerPremium[m]*inflation*priceNoise, 2), 0),
						GDPGrowth:        round(gdpMacro.draw(rng, i), 4),
						SteelPrice:       round(steelMacro.draw(rng, i), 2),
						OilPrice:         round(oilMacro.draw(rng, i), 2),
						InterestRate:     round(interestMacro.draw(rng, i), 4),
						USTariffRate:     round(TariffRate(year), 4),
						USEVSubsidy:      round(EVSubsidy(year), 0),
						EVShare:          round(EVShare(year), 4),
					})
				}
			}
		}
	}
	return &Panel{Observations: rows}, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
