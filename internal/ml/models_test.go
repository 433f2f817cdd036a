package ml

import (
	"math"
	"testing"

	"github.com/pitchside/predictor/internal/core/domain"
)

// =============================================================================
// Softmax
// =============================================================================

func TestSoftmaxModel_LearnsSeparableData(t *testing.T) {
	// One feature: strongly positive for home wins, strongly negative for
	// away wins, near zero for draws.
	var X [][]float64
	var y []int
	for i := 0; i < 30; i++ {
		X = append(X, []float64{2.0}, []float64{-2.0}, []float64{0.0})
		y = append(y, ClassHome, ClassAway, ClassDraw)
	}

	m := &SoftmaxModel{}
	m.Fit(X, y, 400, 0.15, 0)

	cases := []struct {
		x    float64
		want int
	}{
		{2.0, ClassHome},
		{-2.0, ClassAway},
		{0.0, ClassDraw},
	}
	for _, tc := range cases {
		probs := m.Predict([]float64{tc.x})
		if got := argmax(probs); got != tc.want {
			t.Errorf("x=%.1f: predicted class %d, want %d (probs %v)", tc.x, got, tc.want, probs)
		}
	}
}

func TestSoftmaxModel_ProbabilitiesSumToOne(t *testing.T) {
	m := &SoftmaxModel{}
	m.Fit([][]float64{{1, 0}, {0, 1}, {1, 1}}, []int{0, 1, 2}, 50, 0.1, 1e-4)

	probs := m.Predict([]float64{0.5, 0.5})
	var sum float64
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability out of range: %v", probs)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}
}

func TestSoftmaxModel_UntrainedReturnsUniform(t *testing.T) {
	m := &SoftmaxModel{}
	probs := m.Predict([]float64{1, 2, 3})
	for _, p := range probs {
		if math.Abs(p-1.0/3.0) > 1e-9 {
			t.Errorf("expected uniform probabilities, got %v", probs)
		}
	}
}

func TestSoftmaxModel_Importances(t *testing.T) {
	// Second feature carries all the signal.
	var X [][]float64
	var y []int
	for i := 0; i < 30; i++ {
		X = append(X, []float64{0.01, 2.0}, []float64{-0.01, -2.0}, []float64{0.01, 0.0})
		y = append(y, ClassHome, ClassAway, ClassDraw)
	}
	m := &SoftmaxModel{}
	m.Fit(X, y, 400, 0.15, 0)

	imp := m.Importances()
	if len(imp) != 2 {
		t.Fatalf("expected 2 importances, got %d", len(imp))
	}
	if imp[1] <= imp[0] {
		t.Errorf("expected feature 1 to dominate: %v", imp)
	}
	if math.Abs(imp[0]+imp[1]-1) > 1e-9 {
		t.Errorf("importances should sum to 1: %v", imp)
	}
}

// =============================================================================
// Poisson
// =============================================================================

func intPtr(n int) *int { return &n }

func finishedMatch(home, away int64, hg, ag int) *domain.Match {
	return &domain.Match{
		HomeTeamID: home,
		AwayTeamID: away,
		HomeGoals:  intPtr(hg),
		AwayGoals:  intPtr(ag),
		Status:     domain.MatchFinished,
	}
}

func TestPoissonModel_FavorsStrongerAttack(t *testing.T) {
	// Team 1 scores heavily, team 2 concedes heavily.
	var matches []*domain.Match
	for i := 0; i < 10; i++ {
		matches = append(matches,
			finishedMatch(1, 2, 3, 0),
			finishedMatch(2, 1, 0, 2),
		)
	}

	m := NewPoissonModel(10)
	m.Fit(matches)

	probs, lambdaHome, lambdaAway := m.Predict(1, 2)
	if lambdaHome <= lambdaAway {
		t.Errorf("expected home goals %f > away goals %f", lambdaHome, lambdaAway)
	}
	if probs[ClassHome] <= probs[ClassAway] {
		t.Errorf("expected home win favored: %v", probs)
	}

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}
}

func TestPoissonModel_UnseenTeamsGetLeagueAverage(t *testing.T) {
	m := NewPoissonModel(10)
	m.Fit([]*domain.Match{finishedMatch(1, 2, 1, 1)})

	lambdaHome, lambdaAway := m.ExpectedGoals(98, 99)
	if lambdaHome <= 0 || lambdaAway <= 0 {
		t.Errorf("expected positive rates for unseen teams: %f, %f", lambdaHome, lambdaAway)
	}
}

func TestPoissonPMF(t *testing.T) {
	// P(X=0) for lambda=1 is e^-1.
	if got := poissonPMF(1, 0); math.Abs(got-math.Exp(-1)) > 1e-12 {
		t.Errorf("poissonPMF(1,0) = %f, want %f", got, math.Exp(-1))
	}
	// P(X=2) for lambda=2 is 2e^-2.
	if got := poissonPMF(2, 2); math.Abs(got-2*math.Exp(-2)) > 1e-12 {
		t.Errorf("poissonPMF(2,2) = %f, want %f", got, 2*math.Exp(-2))
	}
	if got := poissonPMF(0, 0); got != 1 {
		t.Errorf("poissonPMF(0,0) = %f, want 1", got)
	}
}

// =============================================================================
// Elo
// =============================================================================

func TestExpectedScore(t *testing.T) {
	if got := ExpectedScore(1500, 1500); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("equal ratings should give 0.5, got %f", got)
	}
	// A 400-point edge means 10:1 odds.
	if got := ExpectedScore(1900, 1500); math.Abs(got-10.0/11.0) > 1e-9 {
		t.Errorf("400-point edge should give 10/11, got %f", got)
	}
	if ExpectedScore(1400, 1600) >= 0.5 {
		t.Error("weaker side should be below 0.5")
	}
}

func TestEloModel_Predict(t *testing.T) {
	var m EloModel

	probs := m.Predict(1600, 1400, 0)
	if probs[ClassHome] <= probs[ClassAway] {
		t.Errorf("stronger home side should be favored: %v", probs)
	}

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}

	// Evenly matched sides draw more often than mismatched ones.
	even := m.Predict(1500, 1500, 0)
	lopsided := m.Predict(1800, 1200, 0)
	if even[ClassDraw] <= lopsided[ClassDraw] {
		t.Errorf("draw probability should shrink with rating gap: even=%f lopsided=%f",
			even[ClassDraw], lopsided[ClassDraw])
	}
}

func TestUpdateRatings(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.Outcome
		homeUp  bool
	}{
		{"home win gains rating", domain.OutcomeHomeWin, true},
		{"away win costs rating", domain.OutcomeAwayWin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home, away := UpdateRatings(1500, 1500, tt.outcome)
			if tt.homeUp && home <= 1500 {
				t.Errorf("expected home rating to rise, got %f", home)
			}
			if !tt.homeUp && home >= 1500 {
				t.Errorf("expected home rating to fall, got %f", home)
			}
			// Zero-sum exchange.
			if math.Abs((home-1500)+(away-1500)) > 1e-9 {
				t.Errorf("rating exchange not zero-sum: home=%f away=%f", home, away)
			}
		})
	}
}

func TestUpdateRatings_UpsetMovesMore(t *testing.T) {
	// An underdog win should move ratings more than a favorite win.
	_, favAway := UpdateRatings(1700, 1300, domain.OutcomeHomeWin)
	_, upsetAway := UpdateRatings(1700, 1300, domain.OutcomeAwayWin)

	favDelta := math.Abs(favAway - 1300)
	upsetDelta := math.Abs(upsetAway - 1300)
	if upsetDelta <= favDelta {
		t.Errorf("upset should move ratings more: favorite=%f upset=%f", favDelta, upsetDelta)
	}
}

// =============================================================================
// Processor
// =============================================================================

func TestDataProcessor_ImputesAndStandardizes(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{3, math.NaN()},
		{5, 30},
	}
	p := &DataProcessor{}
	p.Fit(X)

	out := p.Transform(X)
	for i := range out {
		for j := range out[i] {
			if math.IsNaN(out[i][j]) {
				t.Fatalf("NaN survived transform at [%d][%d]", i, j)
			}
		}
	}

	// Column 0 mean is 3: middle row standardizes to 0.
	if math.Abs(out[1][0]) > 1e-9 {
		t.Errorf("expected standardized mean row to be 0, got %f", out[1][0])
	}
	// Imputed NaN becomes the column mean, which standardizes to 0.
	if math.Abs(out[1][1]) > 1e-9 {
		t.Errorf("expected imputed value to standardize to 0, got %f", out[1][1])
	}
}

func TestDataProcessor_ConstantColumn(t *testing.T) {
	X := [][]float64{{5}, {5}, {5}}
	p := &DataProcessor{}
	p.Fit(X)

	out := p.Transform(X)
	for i := range out {
		if math.IsNaN(out[i][0]) || math.IsInf(out[i][0], 0) {
			t.Fatalf("constant column produced %f", out[i][0])
		}
	}
}

func TestSplitChronological(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}, {10}}
	y := []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0}

	trainX, trainY, testX, testY := SplitChronological(X, y, 0.2)
	if len(trainX) != 8 || len(testX) != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", len(trainX), len(testX))
	}
	if len(trainY) != 8 || len(testY) != 2 {
		t.Fatalf("label split mismatch: %d/%d", len(trainY), len(testY))
	}
	// Order is preserved: the test set is the most recent rows.
	if testX[0][0] != 9 || testX[1][0] != 10 {
		t.Errorf("test set should be the tail rows, got %v", testX)
	}
}

// =============================================================================
// Ensemble combination
// =============================================================================

func TestCombine_WeightedAndNormalized(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}
	c := []float64{0, 0, 1}

	out := combine([]float64{0.5, 0.3, 0.2}, a, b, c)
	if math.Abs(out[0]-0.5) > 1e-9 || math.Abs(out[1]-0.3) > 1e-9 || math.Abs(out[2]-0.2) > 1e-9 {
		t.Errorf("unexpected combination: %v", out)
	}

	var sum float64
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("combined probabilities sum to %f", sum)
	}
}
