package ml

import (
	"math"

	"github.com/pitchside/predictor/internal/core/domain"
)

// PoissonModel estimates attack and defense rates per team from finished
// matches, derives expected goals for a fixture, and turns them into
// outcome probabilities by summing a truncated score grid.
type PoissonModel struct {
	attack  map[int64]float64
	defense map[int64]float64

	avgHomeGoals float64
	avgAwayGoals float64
	maxGoals     int
}

// NewPoissonModel creates an unfit model with the given score grid bound.
func NewPoissonModel(maxGoals int) *PoissonModel {
	return &PoissonModel{
		attack:       make(map[int64]float64),
		defense:      make(map[int64]float64),
		avgHomeGoals: defaultGoalsAvg,
		avgAwayGoals: defaultGoalsAvg,
		maxGoals:     maxGoals,
	}
}

// Fit computes league-relative attack and defense rates. A team's attack
// rate is its scoring average over the league average, defense is the
// conceding equivalent. Rates default to 1 for unseen teams.
func (m *PoissonModel) Fit(matches []*domain.Match) {
	m.attack = make(map[int64]float64)
	m.defense = make(map[int64]float64)

	type tally struct {
		scored, conceded, played int
	}
	teams := make(map[int64]*tally)
	var totalHome, totalAway, count int

	get := func(id int64) *tally {
		t, ok := teams[id]
		if !ok {
			t = &tally{}
			teams[id] = t
		}
		return t
	}

	for _, match := range matches {
		if !match.Finished() {
			continue
		}
		hg, ag := *match.HomeGoals, *match.AwayGoals
		home, away := get(match.HomeTeamID), get(match.AwayTeamID)
		home.scored += hg
		home.conceded += ag
		home.played++
		away.scored += ag
		away.conceded += hg
		away.played++
		totalHome += hg
		totalAway += ag
		count++
	}

	if count == 0 {
		return
	}
	m.avgHomeGoals = float64(totalHome) / float64(count)
	m.avgAwayGoals = float64(totalAway) / float64(count)

	leagueAvg := (m.avgHomeGoals + m.avgAwayGoals) / 2
	if leagueAvg == 0 {
		leagueAvg = defaultGoalsAvg
	}
	for id, t := range teams {
		if t.played == 0 {
			continue
		}
		m.attack[id] = (float64(t.scored) / float64(t.played)) / leagueAvg
		m.defense[id] = (float64(t.conceded) / float64(t.played)) / leagueAvg
	}
}

func (m *PoissonModel) rate(table map[int64]float64, id int64) float64 {
	if r, ok := table[id]; ok && r > 0 {
		return r
	}
	return 1
}

// ExpectedGoals returns the fixture's expected home and away goals.
func (m *PoissonModel) ExpectedGoals(homeID, awayID int64) (float64, float64) {
	lambdaHome := m.avgHomeGoals * m.rate(m.attack, homeID) * m.rate(m.defense, awayID)
	lambdaAway := m.avgAwayGoals * m.rate(m.attack, awayID) * m.rate(m.defense, homeID)
	return lambdaHome, lambdaAway
}

// Predict returns outcome probabilities indexed by class label, plus the
// expected goals behind them.
func (m *PoissonModel) Predict(homeID, awayID int64) (probs []float64, lambdaHome, lambdaAway float64) {
	lambdaHome, lambdaAway = m.ExpectedGoals(homeID, awayID)

	probs = make([]float64, numClasses)
	for h := 0; h <= m.maxGoals; h++ {
		ph := poissonPMF(lambdaHome, h)
		for a := 0; a <= m.maxGoals; a++ {
			p := ph * poissonPMF(lambdaAway, a)
			switch {
			case h > a:
				probs[ClassHome] += p
			case h < a:
				probs[ClassAway] += p
			default:
				probs[ClassDraw] += p
			}
		}
	}

	// Renormalize the truncated grid.
	total := probs[ClassHome] + probs[ClassDraw] + probs[ClassAway]
	if total > 0 {
		for c := range probs {
			probs[c] /= total
		}
	}
	return probs, lambdaHome, lambdaAway
}

// poissonPMF returns P(X = k) for X ~ Poisson(lambda).
func poissonPMF(lambda float64, k int) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	logP := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logP)
}

func logFactorial(k int) float64 {
	var sum float64
	for i := 2; i <= k; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}
