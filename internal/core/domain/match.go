package domain

import "time"

// MatchStatus is the lifecycle state of a fixture.
type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchLive      MatchStatus = "live"
	MatchFinished  MatchStatus = "finished"
	MatchPostponed MatchStatus = "postponed"
)

// Outcome is a 1X2 match result from the home side's perspective.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"
)

// Match represents a fixture between two teams.
type Match struct {
	ID          int64       `db:"id"            json:"id"`
	LeagueID    int64       `db:"league_id"     json:"league_id"`
	HomeTeamID  int64       `db:"home_team_id"  json:"home_team_id"`
	AwayTeamID  int64       `db:"away_team_id"  json:"away_team_id"`
	KickoffAt   time.Time   `db:"kickoff_at"    json:"kickoff_at"`
	Matchweek   int         `db:"matchweek"     json:"matchweek,omitempty"`
	HomeGoals   *int        `db:"home_goals"    json:"home_goals,omitempty"`
	AwayGoals   *int        `db:"away_goals"    json:"away_goals,omitempty"`
	Status      MatchStatus `db:"status"        json:"status"`
	OddsHomeWin *float64    `db:"odds_home_win" json:"odds_home_win,omitempty"`
	OddsDraw    *float64    `db:"odds_draw"     json:"odds_draw,omitempty"`
	OddsAwayWin *float64    `db:"odds_away_win" json:"odds_away_win,omitempty"`
	Venue       string      `db:"venue"         json:"venue,omitempty"`
	Referee     string      `db:"referee"       json:"referee,omitempty"`
	CreatedAt   time.Time   `db:"created_at"    json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"    json:"updated_at"`
}

// Finished reports whether the match has a recorded result.
func (m *Match) Finished() bool {
	return m.Status == MatchFinished && m.HomeGoals != nil && m.AwayGoals != nil
}

// Outcome returns the 1X2 result, or "" if the match has no result yet.
func (m *Match) Outcome() Outcome {
	if !m.Finished() {
		return ""
	}
	switch {
	case *m.HomeGoals > *m.AwayGoals:
		return OutcomeHomeWin
	case *m.HomeGoals < *m.AwayGoals:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// Involves reports whether the given team plays in this match.
func (m *Match) Involves(teamID int64) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

// MatchFilter narrows match listings.
type MatchFilter struct {
	LeagueID int64
	TeamID   int64
	Status   MatchStatus
	Limit    int
	Offset   int
}
