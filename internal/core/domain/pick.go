package domain

import "time"

// PickStatus is the settlement state of a user pick.
type PickStatus string

const (
	PickPending PickStatus = "pending"
	PickWon     PickStatus = "won"
	PickLost    PickStatus = "lost"
	PickVoided  PickStatus = "voided"
)

// Pick is a user's saved prediction for a match, optionally with a stake.
type Pick struct {
	ID           string     `db:"id"            json:"id"`
	UserID       int64      `db:"user_id"       json:"user_id"`
	MatchID      int64      `db:"match_id"      json:"match_id"`
	Prediction   Outcome    `db:"prediction"    json:"prediction"`
	Confidence   int        `db:"confidence"    json:"confidence"` // 1-100
	OddsSelected *float64   `db:"odds_selected" json:"odds_selected,omitempty"`
	Stake        *float64   `db:"stake"         json:"stake,omitempty"`
	Potential    *float64   `db:"potential"     json:"potential,omitempty"`
	Status       PickStatus `db:"status"        json:"status"`
	Result       Outcome    `db:"result"        json:"result,omitempty"`
	Reasoning    string     `db:"reasoning"     json:"reasoning,omitempty"`
	SettledAt    *time.Time `db:"settled_at"    json:"settled_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Settle resolves the pick against the actual outcome.
func (p *Pick) Settle(result Outcome, at time.Time) {
	p.Result = result
	p.SettledAt = &at
	if p.Prediction == result {
		p.Status = PickWon
	} else {
		p.Status = PickLost
	}
}

// Winnings returns the payout for a settled winning pick, 0 otherwise.
func (p *Pick) Winnings() float64 {
	if p.Status != PickWon || p.Stake == nil || p.OddsSelected == nil {
		return 0
	}
	return *p.Stake * *p.OddsSelected
}
