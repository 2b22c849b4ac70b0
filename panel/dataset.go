package panel

// Dataset is the covariate matrix with both regression targets, row
// aligned with the panel.
type Dataset struct {
	Features   []string
	X          [][]float64
	Production []float64
	Price      []float64
}

// Extract selects the FeatureNames covariates and both targets.
func (p *Panel) Extract() *Dataset {
	d := &Dataset{
		Features:   append([]string(nil), FeatureNames...),
		X:          make([][]float64, len(p.Observations)),
		Production: make([]float64, len(p.Observations)),
		Price:      make([]float64, len(p.Observations)),
	}
	for i, o := range p.Observations {
		d.X[i] = o.Features().Vector()
		d.Production[i] = float64(o.ProductionVolume)
		d.Price[i] = o.AveragePrice
	}
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.X)
}

// Rows returns a dataset restricted to the half-open row range [from, to).
// The row slices are shared with d.
func (d *Dataset) Rows(from, to int) *Dataset {
	return &Dataset{
		Features:   d.Features,
		X:          d.X[from:to],
		Production: d.Production[from:to],
		Price:      d.Price[from:to],
	}
}
