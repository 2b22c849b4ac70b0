package gbt

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a binary regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree: rows with x[f] <= threshold go left.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root to leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// builder grows one tree on binned features against the current residuals.
type builder struct {
	params   Params
	bins     [][]uint16
	cuts     [][]float64
	resid    []float64
	features []int
	tree     *Tree
	gain     []float64
	splits   []int
	histSum  []float64
	histCnt  []float64
}

type split struct {
	feature int
	bin     int
	gain    float64
}

func (b *builder) grow(rows []int, depth int) int {
	sum := 0.0
	for _, r := range rows {
		sum += b.resid[r]
	}
	count := float64(len(rows))

	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1})

	best, ok := split{}, false
	if depth < b.params.MaxDepth && count >= 2*b.params.MinChildWeight {
		best, ok = b.bestSplit(rows, sum, count)
	}
	if !ok {
		b.tree.Nodes[idx].Value = b.params.LearningRate * sum / (count + b.params.Lambda)
		return idx
	}

	b.gain[best.feature] += best.gain
	b.splits[best.feature]++

	column := b.bins[best.feature]
	lo, hi := 0, len(rows)-1
	for lo <= hi {
		if int(column[rows[lo]]) <= best.bin {
			lo++
			continue
		}
		rows[lo], rows[hi] = rows[hi], rows[lo]
		hi--
	}

	left := b.grow(rows[:lo], depth+1)
	right := b.grow(rows[lo:], depth+1)
	b.tree.Nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: b.cuts[best.feature][best.bin],
		Left:      left,
		Right:     right,
	}
	return idx
}

func (b *builder) bestSplit(rows []int, sum, count float64) (split, bool) {
	lambda := b.params.Lambda
	parent := sum * sum / (count + lambda)
	best, found := split{}, false

	for _, f := range b.features {
		nb := len(b.cuts[f]) + 1
		if nb < 2 {
			continue
		}
		hs, hc := b.histSum[:nb], b.histCnt[:nb]
		for i := range hs {
			hs[i], hc[i] = 0, 0
		}
		column := b.bins[f]
		for _, r := range rows {
			bin := column[r]
			hs[bin] += b.resid[r]
			hc[bin]++
		}

		gl, hl := 0.0, 0.0
		for j := 0; j < nb-1; j++ {
			gl += hs[j]
			hl += hc[j]
			gr, hr := sum-gl, count-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
			if gain > best.gain+1e-12 {
				best = split{feature: f, bin: j, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
