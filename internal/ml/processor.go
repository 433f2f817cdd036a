package ml

import "math"

// DataProcessor imputes missing values and standardizes columns. Column
// means and standard deviations are captured at Fit time and reused for
// every later transform so prediction rows see the training distribution.
type DataProcessor struct {
	means  []float64
	stds   []float64
	fitted bool
}

// Fit captures per-column statistics, ignoring NaN entries.
func (p *DataProcessor) Fit(X [][]float64) {
	if len(X) == 0 {
		return
	}
	cols := len(X[0])
	p.means = make([]float64, cols)
	p.stds = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		var n int
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				sum += X[i][j]
				n++
			}
		}
		if n > 0 {
			p.means[j] = sum / float64(n)
		}

		var variance float64
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				d := X[i][j] - p.means[j]
				variance += d * d
			}
		}
		if n > 1 {
			p.stds[j] = math.Sqrt(variance / float64(n))
		}
		if p.stds[j] == 0 {
			p.stds[j] = 1
		}
	}
	p.fitted = true
}

// Fitted reports whether statistics have been captured.
func (p *DataProcessor) Fitted() bool {
	return p.fitted
}

// Transform imputes and standardizes a matrix in place-safe copies.
func (p *DataProcessor) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = p.TransformRow(X[i])
	}
	return out
}

// TransformRow imputes NaN entries with the column mean, then standardizes.
func (p *DataProcessor) TransformRow(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if math.IsNaN(v) {
			v = p.means[j]
		}
		out[j] = (v - p.means[j]) / p.stds[j]
	}
	return out
}

// SplitChronological splits rows into train and test sets without
// shuffling. Rows must already be ordered oldest first, so the model is
// always evaluated on matches played after everything it trained on.
func SplitChronological(X [][]float64, y []int, testFraction float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	cut := len(X) - int(float64(len(X))*testFraction)
	if cut < 1 {
		cut = 1
	}
	if cut > len(X) {
		cut = len(X)
	}
	return X[:cut], y[:cut], X[cut:], y[cut:]
}
