package ml

import (
	"math"

	"github.com/pitchside/predictor/internal/core/domain"
)

const (
	// EloKFactor bounds how much a single result moves a rating.
	EloKFactor = 8.0

	eloScale     = 400.0
	eloHomeBonus = 60.0

	// Draw probability peaks for evenly rated sides and decays with the
	// rating gap.
	maxDrawProb  = 0.32
	drawGapDecay = 900.0
)

// ExpectedScore returns the probability that a side rated ra beats one
// rated rb, draws counting half.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/eloScale))
}

// EloModel turns strength ratings into outcome probabilities.
type EloModel struct{}

// Predict returns outcome probabilities indexed by class label. The home
// side gets a fixed rating bonus on top of any per-team home advantage.
func (EloModel) Predict(homeRating, awayRating, homeAdvantage float64) []float64 {
	adjusted := homeRating + eloHomeBonus + homeAdvantage
	expected := ExpectedScore(adjusted, awayRating)

	gap := math.Abs(adjusted - awayRating)
	pDraw := maxDrawProb * math.Exp(-gap/drawGapDecay)

	probs := make([]float64, numClasses)
	probs[ClassDraw] = pDraw
	probs[ClassHome] = expected * (1 - pDraw)
	probs[ClassAway] = (1 - expected) * (1 - pDraw)
	return probs
}

// UpdateRatings applies the post-match rating exchange and returns the new
// home and away ratings.
func UpdateRatings(homeRating, awayRating float64, outcome domain.Outcome) (float64, float64) {
	expected := ExpectedScore(homeRating+eloHomeBonus, awayRating)

	var score float64
	switch outcome {
	case domain.OutcomeHomeWin:
		score = 1
	case domain.OutcomeDraw:
		score = 0.5
	case domain.OutcomeAwayWin:
		score = 0
	default:
		return homeRating, awayRating
	}

	delta := EloKFactor * (score - expected)
	return homeRating + delta, awayRating - delta
}
