package domain

import "time"

// Prediction stores a model's calibrated outcome probabilities for a match.
type Prediction struct {
	ID           int64     `db:"id"             json:"id"`
	MatchID      int64     `db:"match_id"       json:"match_id"`
	ProbHome     float64   `db:"prob_home"      json:"prob_home"`
	ProbDraw     float64   `db:"prob_draw"      json:"prob_draw"`
	ProbAway     float64   `db:"prob_away"      json:"prob_away"`
	ExpGoalsHome float64   `db:"exp_goals_home" json:"exp_goals_home"`
	ExpGoalsAway float64   `db:"exp_goals_away" json:"exp_goals_away"`
	Confidence   float64   `db:"confidence"     json:"confidence"`
	ModelVersion string    `db:"model_version"  json:"model_version"`
	Outcome      Outcome   `db:"outcome"        json:"outcome"`
	WasCorrect   *bool     `db:"was_correct"    json:"was_correct,omitempty"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}

// Pick returns the predicted outcome implied by the probability vector.
func (p *Prediction) Pick() Outcome {
	switch {
	case p.ProbHome >= p.ProbDraw && p.ProbHome >= p.ProbAway:
		return OutcomeHomeWin
	case p.ProbAway >= p.ProbDraw:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}
