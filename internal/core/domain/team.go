package domain

import "time"

const (
	// DefaultRating is the strength rating assigned to a team with no history.
	DefaultRating = 1500.0
)

// Team represents a club registered in a league.
type Team struct {
	ID            int64     `db:"id"             json:"id"`
	LeagueID      int64     `db:"league_id"      json:"league_id"`
	Name          string    `db:"name"           json:"name"`
	Country       string    `db:"country"        json:"country"`
	City          string    `db:"city"           json:"city,omitempty"`
	FoundedYear   int       `db:"founded_year"   json:"founded_year,omitempty"`
	Stadium       string    `db:"stadium"        json:"stadium,omitempty"`
	HomeAdvantage float64   `db:"home_advantage" json:"home_advantage"`
	Rating        float64   `db:"rating"         json:"rating"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}
