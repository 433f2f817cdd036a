package ml

import "math"

// Outcome class labels used across the models.
const (
	ClassAway = 0
	ClassDraw = 1
	ClassHome = 2
	numClasses = 3
)

// SoftmaxModel is a multinomial logistic regression fit by batch gradient
// descent on cross-entropy loss with L2 regularization.
type SoftmaxModel struct {
	// weights[class] holds one coefficient per feature plus a bias term
	// at the end.
	weights [][]float64
}

// Fit trains the model. X rows must already be standardized.
func (m *SoftmaxModel) Fit(X [][]float64, y []int, epochs int, lr, l2 float64) {
	if len(X) == 0 {
		return
	}
	features := len(X[0])
	m.weights = make([][]float64, numClasses)
	for c := range m.weights {
		m.weights[c] = make([]float64, features+1)
	}

	n := float64(len(X))
	for epoch := 0; epoch < epochs; epoch++ {
		grads := make([][]float64, numClasses)
		for c := range grads {
			grads[c] = make([]float64, features+1)
		}

		for i, x := range X {
			probs := m.Predict(x)
			for c := 0; c < numClasses; c++ {
				// gradient of cross-entropy: (p_c - 1{y==c}) * x
				err := probs[c]
				if y[i] == c {
					err -= 1
				}
				for j, v := range x {
					grads[c][j] += err * v
				}
				grads[c][features] += err // bias
			}
		}

		for c := 0; c < numClasses; c++ {
			for j := 0; j <= features; j++ {
				g := grads[c][j] / n
				if j < features {
					g += l2 * m.weights[c][j]
				}
				m.weights[c][j] -= lr * g
			}
		}
	}
}

// Predict returns class probabilities indexed by ClassAway/ClassDraw/ClassHome.
func (m *SoftmaxModel) Predict(x []float64) []float64 {
	probs := make([]float64, numClasses)
	if m.weights == nil {
		for c := range probs {
			probs[c] = 1.0 / numClasses
		}
		return probs
	}

	logits := make([]float64, numClasses)
	maxLogit := math.Inf(-1)
	for c := 0; c < numClasses; c++ {
		z := m.weights[c][len(x)] // bias
		for j, v := range x {
			z += m.weights[c][j] * v
		}
		logits[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	// Subtract the max logit before exponentiating for stability.
	var total float64
	for c, z := range logits {
		probs[c] = math.Exp(z - maxLogit)
		total += probs[c]
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs
}

// Importances returns the mean absolute coefficient per feature,
// normalized to sum to 1.
func (m *SoftmaxModel) Importances() []float64 {
	if m.weights == nil {
		return nil
	}
	features := len(m.weights[0]) - 1
	imp := make([]float64, features)
	var total float64
	for j := 0; j < features; j++ {
		for c := 0; c < numClasses; c++ {
			imp[j] += math.Abs(m.weights[c][j])
		}
		imp[j] /= numClasses
		total += imp[j]
	}
	if total > 0 {
		for j := range imp {
			imp[j] /= total
		}
	}
	return imp
}

// labelFor maps a match outcome to its class label.
func labelFor(outcome string) int {
	switch outcome {
	case "home_win":
		return ClassHome
	case "draw":
		return ClassDraw
	default:
		return ClassAway
	}
}
