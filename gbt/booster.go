package gbt

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("gbt: model is not fitted")
	// ErrDimension is returned for inconsistent input shapes.
	ErrDimension = errors.New("gbt: dimension mismatch")
)

// Params are the boosting hyperparameters.
type Params struct {
	NumTrees       int     `yaml:"num_trees" json:"num_trees"`
	MaxDepth       int     `yaml:"max_depth" json:"max_depth"`
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	Subsample      float64 `yaml:"subsample" json:"subsample"`
	ColSample      float64 `yaml:"colsample" json:"colsample"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`
	MinChildWeight float64 `yaml:"min_child_weight" json:"min_child_weight"`
	MaxBins        int     `yaml:"max_bins" json:"max_bins"`
	Seed           int64   `yaml:"seed" json:"seed"`
}

// DefaultParams returns 100 trees of depth 6 with learning rate 0.1 and
// 80% row and feature subsampling.
func DefaultParams() Params {
	return Params{
		NumTrees:       100,
		MaxDepth:       6,
		LearningRate:   0.1,
		Subsample:      0.8,
		ColSample:      0.8,
		Lambda:         1,
		MinChildWeight: 1,
		MaxBins:        256,
		Seed:           42,
	}
}

// Validate checks that the parameters are usable.
func (p Params) Validate() error {
	switch {
	case p.NumTrees < 1:
		return errors.New("gbt: num_trees must be at least 1")
	case p.MaxDepth < 0:
		return errors.New("gbt: max_depth must not be negative")
	case p.LearningRate <= 0:
		return errors.New("gbt: learning_rate must be positive")
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.New("gbt: subsample must be in (0, 1]")
	case p.ColSample <= 0 || p.ColSample > 1:
		return errors.New("gbt: colsample must be in (0, 1]")
	case p.Lambda < 0 || p.MinChildWeight < 0:
		return errors.New("gbt: lambda and min_child_weight must not be negative")
	case p.MaxBins < 2 || p.MaxBins > 1<<16-1:
		return errors.New("gbt: max_bins must be in [2, 65535]")
	}
	return nil
}

// Model is a fitted ensemble of regression trees.
type Model struct {
	Params      Params    `json:"params"`
	Base        float64   `json:"base"`
	NumFeatures int       `json:"num_features"`
	Trees       []Tree    `json:"trees"`
	Importance  []float64 `json:"importance"`
}

// New returns an unfitted model.
func New(p Params) *Model {
	return &Model{Params: p}
}

// Fit grows Params.NumTrees trees on x and y.
func (m *Model) Fit(x [][]float64, y []float64) error {
	if err := m.Params.Validate(); err != nil {
		return err
	}
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("%w: %d rows for %d targets", ErrDimension, n, len(y))
	}
	k := len(x[0])
	for i, row := range x {
		if len(row) != k {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(row), k)
		}
	}

	cuts := make([][]float64, k)
	bins := make([][]uint16, k)
	col := make([]float64, n)
	for f := 0; f < k; f++ {
		for i := range x {
			col[i] = x[i][f]
		}
		cuts[f] = thresholds(col, m.Params.MaxBins)
		bins[f] = make([]uint16, n)
		for i, v := range col {
			bins[f][i] = uint16(binIndex(cuts[f], v))
		}
	}

	rng := rand.New(rand.NewSource(m.Params.Seed))
	m.Base = stat.Mean(y, nil)
	m.NumFeatures = k
	m.Trees = make([]Tree, 0, m.Params.NumTrees)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.Base
	}

	b := &builder{
		params:  m.Params,
		bins:    bins,
		cuts:    cuts,
		resid:   make([]float64, n),
		gain:    make([]float64, k),
		splits:  make([]int, k),
		histSum: make([]float64, m.Params.MaxBins+1),
		histCnt: make([]float64, m.Params.MaxBins+1),
	}
	nFeatures := max(1, int(m.Params.ColSample*float64(k)))
	rows := make([]int, 0, n)

	for t := 0; t < m.Params.NumTrees; t++ {
		floats.SubTo(b.resid, y, pred)

		rows = rows[:0]
		for i := 0; i < n; i++ {
			if m.Params.Subsample >= 1 || rng.Float64() < m.Params.Subsample {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			continue
		}
		b.features = rng.Perm(k)[:nFeatures]
		sort.Ints(b.features)

		tree := Tree{}
		b.tree = &tree
		b.grow(rows, 0)
		m.Trees = append(m.Trees, tree)

		for i := range pred {
			pred[i] += tree.Predict(x[i])
		}
	}

	m.Importance = make([]float64, k)
	for f := range m.Importance {
		if b.splits[f] > 0 {
			m.Importance[f] = b.gain[f] / float64(b.splits[f])
		}
	}
	if total := floats.Sum(m.Importance); total > 0 {
		floats.Scale(1/total, m.Importance)
	}
	return nil
}

// Predict returns the ensemble prediction for one feature row.
func (m *Model) Predict(x []float64) (float64, error) {
	if m.Trees == nil {
		return 0, ErrNotFitted
	}
	if len(x) != m.NumFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimension, len(x), m.NumFeatures)
	}
	v := m.Base
	for i := range m.Trees {
		v += m.Trees[i].Predict(x)
	}
	return v, nil
}

// PredictBatch predicts every row of x.
func (m *Model) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportance returns the average split gain per feature, normalised
// to sum to one.
func (m *Model) FeatureImportance() []float64 {
	return append([]float64(nil), m.Importance...)
}
