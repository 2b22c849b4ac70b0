package training

// Fold is one forward-chaining split: rows [0, TrainEnd) train the model
// and rows [TestStart, TestEnd) evaluate it.
type Fold struct {
	TrainEnd  int
	TestStart int
	TestEnd   int
}

// TimeSeriesSplit returns k forward-chaining folds over n ordered rows.
// Every test block holds n/(k+1) rows and the last block ends at n. It
// returns nil when n is too small for k non-empty test blocks.
func TimeSeriesSplit(n, k int) []Fold {
	if k < 1 {
		return nil
	}
	size := n / (k + 1)
	if size < 1 {
		return nil
	}

	first := n - k*size
	folds := make([]Fold, k)
	for i := range folds {
		start := first + i*size
		folds[i] = Fold{TrainEnd: start, TestStart: start, TestEnd: start + size}
	}
	return folds
}
