package domain

import "time"

// League represents a football competition for a single season.
type League struct {
	ID          int64     `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Country     string    `db:"country"     json:"country"`
	Season      int       `db:"season"      json:"season"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// StandingsRow is one line of a league table, ordered by points,
// goal difference, goals for, then name.
type StandingsRow struct {
	TeamID       int64  `db:"team_id"       json:"team_id"`
	TeamName     string `db:"team_name"     json:"team_name"`
	Played       int    `db:"played"        json:"played"`
	Wins         int    `db:"wins"          json:"wins"`
	Draws        int    `db:"draws"         json:"draws"`
	Losses       int    `db:"losses"        json:"losses"`
	GoalsFor     int    `db:"goals_for"     json:"goals_for"`
	GoalsAgainst int    `db:"goals_against" json:"goals_against"`
	GoalDiff     int    `db:"goal_diff"     json:"goal_diff"`
	Points       int    `db:"points"        json:"points"`
}
