package domain

import "time"

// WindowStats aggregates results over a fixed number of recent matches.
type WindowStats struct {
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
}

// Played returns the number of matches covered by the window.
func (w WindowStats) Played() int {
	return w.Wins + w.Draws + w.Losses
}

// Points returns league points earned over the window.
func (w WindowStats) Points() int {
	return w.Wins*3 + w.Draws
}

// TeamForm caches rolling form metrics for a team. Recomputed by the
// form worker and served from Redis when available.
type TeamForm struct {
	TeamID           int64       `json:"team_id"`
	Last5            WindowStats `json:"last_5"`
	Last10           WindowStats `json:"last_10"`
	Season           WindowStats `json:"season"`
	AvgGoalsScored   float64     `json:"avg_goals_scored"`
	AvgGoalsConceded float64     `json:"avg_goals_conceded"`
	FormRating       float64     `json:"form_rating"` // 0-100
	UpdatedAt        time.Time   `json:"updated_at"`
}

// HeadToHead caches the record between two teams, from team A's perspective.
type HeadToHead struct {
	TeamAID      int64     `json:"team_a_id"`
	TeamBID      int64     `json:"team_b_id"`
	TotalMatches int       `json:"total_matches"`
	AWins        int       `json:"a_wins"`
	Draws        int       `json:"draws"`
	BWins        int       `json:"b_wins"`
	AGoals       int       `json:"a_goals"`
	BGoals       int       `json:"b_goals"`
	RecentAWins  int       `json:"recent_a_wins"`
	RecentDraws  int       `json:"recent_draws"`
	RecentBWins  int       `json:"recent_b_wins"`
	AHomeWins    int       `json:"a_home_wins"`
	AWinRate     float64   `json:"a_win_rate"`
	AvgGoals     float64   `json:"avg_goals"`
	UpdatedAt    time.Time `json:"updated_at"`
}
