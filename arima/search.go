package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/autoscenario/timeseries"
)

// ErrNoModel is returned when no candidate order could be fitted.
var ErrNoModel = errors.New("no candidate order could be fitted")

// Criteria accepted by SearchConfig.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// SearchConfig bounds a stepwise order search at a fixed differencing order.
type SearchConfig struct {
	MaxP      int    `yaml:"max_p" json:"max_p"`
	MaxQ      int    `yaml:"max_q" json:"max_q"`
	Criterion string `yaml:"criterion" json:"criterion"`
}

// DefaultSearchConfig searches up to ARIMA(3,d,3) by AICc.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxP: 3, MaxQ: 3, Criterion: CriterionAICc}
}

// Validate checks the search bounds and criterion.
func (c SearchConfig) Validate() error {
	if c.MaxP < 0 || c.MaxQ < 0 {
		return fmt.Errorf("invalid search bounds p<=%d q<=%d", c.MaxP, c.MaxQ)
	}
	switch c.Criterion {
	case "", CriterionAIC, CriterionAICc, CriterionBIC:
		return nil
	}
	return fmt.Errorf("invalid criterion: %s", c.Criterion)
}

func (c SearchConfig) score(m *Model) float64 {
	switch c.Criterion {
	case CriterionAIC:
		return m.AIC
	case CriterionBIC:
		return m.BIC
	}
	return m.AICc
}

// SearchResult is the best model found and the number of fits tried.
type SearchResult struct {
	Model     *Model
	Score     float64
	Evaluated int
}

// Search fits a few starting orders, then moves to the best neighbour of
// the current order until no neighbour improves the criterion. Orders that
// fail to fit or produce non-finite criteria are skipped.
func Search(series *timeseries.Series, d int, cfg SearchConfig) (*SearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type pq struct{ p, q int }
	tried := make(map[pq]bool)
	res := &SearchResult{Score: math.Inf(1)}
	var best pq

	try := func(o pq) bool {
		if o.p < 0 || o.q < 0 || o.p > cfg.MaxP || o.q > cfg.MaxQ || tried[o] {
			return false
		}
		tried[o] = true
		m := New(o.p, d, o.q)
		if err := m.Fit(series); err != nil {
			return false
		}
		res.Evaluated++
		s := cfg.score(m)
		if math.IsNaN(s) || math.IsInf(s, 0) || s >= res.Score {
			return false
		}
		res.Model, res.Score, best = m, s, o
		return true
	}

	for _, o := range []pq{{2, 2}, {0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		try(o)
	}
	if res.Model == nil {
		return nil, ErrNoModel
	}

	for improved := true; improved; {
		improved = false
		cur := best
		for _, o := range []pq{
			{cur.p + 1, cur.q}, {cur.p - 1, cur.q},
			{cur.p, cur.q + 1}, {cur.p, cur.q - 1},
			{cur.p + 1, cur.q + 1}, {cur.p - 1, cur.q - 1},
		} {
			if try(o) {
				improved = true
			}
		}
	}
	return res, nil
}
