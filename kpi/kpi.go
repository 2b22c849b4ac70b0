// Package kpi computes descriptive indicators over a panel: production
// totals and rankings, price levels, macro averages, EV transition figures
// and the monthly seasonal profile of production.
package kpi

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/stats"
)

// Group is an aggregate for one key.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// YearValue is an aggregate for one calendar year.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Overview describes the shape of the panel.
type Overview struct {
	Rows          int       `json:"rows"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Manufacturers int       `json:"manufacturers"`
	Categories    int       `json:"categories"`
	Regions       int       `json:"regions"`
}

// Macro holds the panel means of the macro and policy covariates.
type Macro struct {
	GDPGrowth    float64 `json:"gdp_growth"`
	InterestRate float64 `json:"interest_rate"`
	OilPrice     float64 `json:"oil_price"`
	SteelPrice   float64 `json:"steel_price"`
	TariffRate   float64 `json:"us_tariff_rate"`
	EVSubsidy    float64 `json:"us_ev_subsidy"`
}

// EV holds the electric vehicle indicators.
type EV struct {
	MeanShare       float64 `json:"mean_share"`
	Production      float64 `json:"production"`
	ProductionShare float64 `json:"production_share"`
	AveragePrice    float64 `json:"average_price"`
	ByManufacturer  []Group `json:"by_manufacturer"`
}

// RegionSummary holds the headline figures of one region.
type RegionSummary struct {
	Region       string  `json:"region"`
	Production   float64 `json:"production"`
	AveragePrice float64 `json:"average_price"`
	GDPGrowth    float64 `json:"gdp_growth"`
}

// MonthlySummary describes the aggregated monthly production series.
type MonthlySummary struct {
	Months        int       `json:"months"`
	Total         float64   `json:"total"`
	Peak          float64   `json:"peak"`
	Trough        float64   `json:"trough"`
	Latest        float64   `json:"latest"`
	LatestMonth   time.Time `json:"latest_month"`
	LastTwelve    float64   `json:"last_twelve_months"`
	YearOnYearPct float64   `json:"year_on_year_pct"`
}

// Report is the full KPI set of a panel.
type Report struct {
	Overview                 Overview        `json:"overview"`
	TotalProduction          float64         `json:"total_production"`
	ProductionByYear         []YearValue     `json:"production_by_year"`
	ProductionByRegion       []Group         `json:"production_by_region"`
	ProductionByManufacturer []Group         `json:"production_by_manufacturer"`
	AveragePrice             float64         `json:"average_price"`
	PriceByCategory          []Group         `json:"price_by_category"`
	PriceByRegion            []Group         `json:"price_by_region"`
	Macro                    Macro           `json:"macro"`
	EV                       EV              `json:"ev"`
	Regions                  []RegionSummary `json:"regions"`
	Monthly                  MonthlySummary  `json:"monthly"`
	SeasonalProfile          []float64       `json:"seasonal_profile,omitempty"`
}

// Analyze computes the KPI report. It returns panel.ErrEmptyPanel for an
// empty panel.
func Analyze(p *panel.Panel) (*Report, error) {
	if p == nil || p.Len() == 0 {
		return nil, panel.ErrEmptyPanel
	}
	obs := p.Observations
	r := &Report{}

	first, last := p.Span()
	manufacturers := make(map[string]bool)
	categories := make(map[panel.Category]bool)
	regions := make(map[panel.Region]bool)

	byYear := make(map[int]float64)
	byRegion := newAcc()
	byManufacturer := newAcc()
	priceByCategory := newAcc()
	priceByRegion := newAcc()
	gdpByRegion := newAcc()
	evByManufacturer := newAcc()

	n := len(obs)
	prices := make([]float64, n)
	gdp := make([]float64, n)
	interest := make([]float64, n)
	oil := make([]float64, n)
	steel := make([]float64, n)
	tariff := make([]float64, n)
	subsidy := make([]float64, n)
	share := make([]float64, n)
	var evPrices []float64

	for i, o := range obs {
		vol := float64(o.ProductionVolume)
		manufacturers[o.Manufacturer] = true
		categories[o.Category] = true
		regions[o.Region] = true

		r.TotalProduction += vol
		byYear[o.Date.Year()] += vol
		byRegion.add(string(o.Region), vol)
		byManufacturer.add(o.Manufacturer, vol)
		priceByCategory.add(string(o.Category), o.AveragePrice)
		priceByRegion.add(string(o.Region), o.AveragePrice)
		gdpByRegion.add(string(o.Region), o.GDPGrowth)

		if o.Category == panel.ElectricVehicles {
			r.EV.Production += vol
			evByManufacturer.add(o.Manufacturer, vol)
			evPrices = append(evPrices, o.AveragePrice)
		}

		prices[i] = o.AveragePrice
		gdp[i] = o.GDPGrowth
		interest[i] = o.InterestRate
		oil[i] = o.OilPrice
		steel[i] = o.SteelPrice
		tariff[i] = o.USTariffRate
		subsidy[i] = o.USEVSubsidy
		share[i] = o.EVShare
	}

	r.Overview = Overview{
		Rows:          n,
		Start:         first,
		End:           last,
		Manufacturers: len(manufacturers),
		Categories:    len(categories),
		Regions:       len(regions),
	}

	for y, v := range byYear {
		r.ProductionByYear = append(r.ProductionByYear, YearValue{Year: y, Value: v})
	}
	sort.Slice(r.ProductionByYear, func(i, j int) bool { return r.ProductionByYear[i].Year < r.ProductionByYear[j].Year })

	r.ProductionByRegion = byRegion.sums()
	r.ProductionByManufacturer = byManufacturer.sums()
	r.PriceByCategory = priceByCategory.means()
	r.PriceByRegion = priceByRegion.means()

	r.AveragePrice = stat.Mean(prices, nil)
	r.Macro = Macro{
		GDPGrowth:    stat.Mean(gdp, nil),
		InterestRate: stat.Mean(interest, nil),
		OilPrice:     stat.Mean(oil, nil),
		SteelPrice:   stat.Mean(steel, nil),
		TariffRate:   stat.Mean(tariff, nil),
		EVSubsidy:    stat.Mean(subsidy, nil),
	}

	r.EV.MeanShare = stat.Mean(share, nil)
	if r.TotalProduction > 0 {
		r.EV.ProductionShare = r.EV.Production / r.TotalProduction
	}
	if len(evPrices) > 0 {
		r.EV.AveragePrice = stat.Mean(evPrices, nil)
	}
	r.EV.ByManufacturer = evByManufacturer.sums()

	gdpMeans := make(map[string]float64)
	for _, g := range gdpByRegion.means() {
		gdpMeans[g.Key] = g.Value
	}
	priceMeans := make(map[string]float64)
	for _, g := range r.PriceByRegion {
		priceMeans[g.Key] = g.Value
	}
	for _, g := range r.ProductionByRegion {
		r.Regions = append(r.Regions, RegionSummary{
			Region:       g.Key,
			Production:   g.Value,
			AveragePrice: priceMeans[g.Key],
			GDPGrowth:    gdpMeans[g.Key],
		})
	}

	r.Monthly = Monthly(p.Aggregate())
	r.SeasonalProfile = SeasonalProfile(p)
	return r, nil
}

// Monthly summarises aggregated monthly production. Year on year growth
// compares the last twelve months with the twelve before them and stays
// zero with fewer than 24 months.
func Monthly(points []panel.MonthlyPoint) MonthlySummary {
	s := panel.ProductionSeries(points)
	out := MonthlySummary{Months: s.Len(), Total: s.Sum()}

	ts, v, ok := s.Last()
	if !ok {
		return out
	}
	out.Latest, out.LatestMonth = v, ts
	out.Peak, out.Trough = s.Max(), s.Min()

	n := s.Len()
	out.LastTwelve = s.Slice(n-12, n).Sum()
	if n >= 24 {
		if prior := s.Slice(n-24, n-12).Sum(); prior > 0 {
			out.YearOnYearPct = (out.LastTwelve/prior - 1) * 100
		}
	}
	return out
}

// SeasonalProfile returns the additive seasonal effect of each calendar
// month on total monthly production, January first. It is nil when the
// panel covers fewer than two years.
func SeasonalProfile(p *panel.Panel) []float64 {
	points := p.Aggregate()
	d := stats.Decompose(panel.ProductionSeries(points), 12)
	if d == nil || len(points) == 0 {
		return nil
	}

	// Profile is indexed by position in the series; rotate so index 0 is January.
	offset := int(points[0].Date.Month()) - 1
	out := make([]float64, 12)
	for i, v := range d.Profile {
		out[(i+offset)%12] = v
	}
	return out
}

type acc struct {
	order []string
	sum   map[string]float64
	count map[string]int
}

func newAcc() *acc {
	return &acc{sum: make(map[string]float64), count: make(map[string]int)}
}

func (a *acc) add(key string, v float64) {
	if _, ok := a.count[key]; !ok {
		a.order = append(a.order, key)
	}
	a.sum[key] += v
	a.count[key]++
}

func (a *acc) sums() []Group {
	out := make([]Group, len(a.order))
	for i, k := range a.order {
		out[i] = Group{Key: k, Value: a.sum[k]}
	}
	sortDesc(out)
	return out
}

func (a *acc) means() []Group {
	out := make([]Group, len(a.order))
	for i, k := range a.order {
		out[i] = Group{Key: k, Value: a.sum[k] / float64(a.count[k])}
	}
	sortDesc(out)
	return out
}

func sortDesc(g []Group) {
	sort.SliceStable(g, func(i, j int) bool { return g[i].Value > g[j].Value })
}
