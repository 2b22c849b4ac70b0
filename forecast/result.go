package forecast

import (
	"github.com/sartorproj/autoscenario/training"
)

// Filter returns the records matching scenario and model. Empty arguments
// match everything.
func (r *Result) Filter(scenarioName string, model training.Kind) []Record {
	var out []Record
	for _, rec := range r.Records {
		if scenarioName != "" && rec.Scenario != scenarioName {
			continue
		}
		if model != "" && rec.Model != model {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Series returns the production and price path of one scenario and model.
func (r *Result) Series(scenarioName string, model training.Kind) (Series, bool) {
	recs := r.Filter(scenarioName, model)
	if len(recs) == 0 {
		return Series{}, false
	}
	s := Series{Production: make([]float64, len(recs)), Price: make([]float64, len(recs))}
	for i, rec := range recs {
		s.Production[i] = rec.Production
		s.Price[i] = rec.Price
	}
	return s, true
}

// Models returns the model kinds with at least one record for scenarioName,
// in record order.
func (r *Result) Models(scenarioName string) []training.Kind {
	seen := make(map[training.Kind]bool)
	var out []training.Kind
	for _, rec := range r.Records {
		if rec.Scenario == scenarioName && !seen[rec.Model] {
			seen[rec.Model] = true
			out = append(out, rec.Model)
		}
	}
	return out
}

// Growth returns the total ensemble production growth of a scenario over
// the horizon in percent, last over first minus one. It is false when the
// scenario has no ensemble or the first value is zero.
func (r *Result) Growth(scenarioName string) (float64, bool) {
	s, ok := r.Series(scenarioName, training.Ensemble)
	if !ok || len(s.Production) == 0 || s.Production[0] == 0 {
		return 0, false
	}
	return (s.Production[len(s.Production)-1]/s.Production[0] - 1) * 100, true
}
