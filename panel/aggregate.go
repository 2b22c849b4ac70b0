package panel

import (
	"sort"
	"time"

	"github.com/sartorproj/autoscenario/timeseries"
)

// MonthlyPoint is the panel collapsed to one month: production is summed,
// price and covariates are averaged.
type MonthlyPoint struct {
	Date         time.Time `json:"ds"`
	Production   float64   `json:"y"`
	AveragePrice float64   `json:"average_price"`
	SteelPrice   float64   `json:"steel_price"`
	GDPGrowth    float64   `json:"gdp_growth"`
	TariffRate   float64   `json:"tariff_rate"`
}

// Aggregate returns one point per distinct month in date order.
func (p *Panel) Aggregate() []MonthlyPoint {
	type acc struct {
		point MonthlyPoint
		n     int
	}
	byMonth := make(map[time.Time]*acc)
	for _, o := range p.Observations {
		key := timeseries.MonthStart(o.Date)
		a, ok := byMonth[key]
		if !ok {
			a = &acc{point: MonthlyPoint{Date: key}}
			byMonth[key] = a
		}
		a.point.Production += float64(o.ProductionVolume)
		a.point.AveragePrice += o.AveragePrice
		a.point.SteelPrice += o.SteelPrice
		a.point.GDPGrowth += o.GDPGrowth
		a.point.TariffRate += o.USTariffRate
		a.n++
	}

	points := make([]MonthlyPoint, 0, len(byMonth))
	for _, a := range byMonth {
		n := float64(a.n)
		a.point.AveragePrice /= n
		a.point.SteelPrice /= n
		a.point.GDPGrowth /= n
		a.point.TariffRate /= n
		points = append(points, a.point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// ProductionSeries returns the monthly summed production as a series.
func ProductionSeries(points []MonthlyPoint) *timeseries.Series {
	s := &timeseries.Series{
		Timestamps: make([]time.Time, len(points)),
		Values:     make([]float64, len(points)),
		Name:       "production",
	}
	for i, pt := range points {
		s.Timestamps[i] = pt.Date
		s.Values[i] = pt.Production
	}
	return s
}
