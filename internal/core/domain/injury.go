package domain

import "time"

// InjurySeverity grades how serious an injury is.
type InjurySeverity string

const (
	SeverityMinor    InjurySeverity = "minor"
	SeverityModerate InjurySeverity = "moderate"
	SeveritySevere   InjurySeverity = "severe"
)

// InjuryStatus is the recovery state of a player.
type InjuryStatus string

const (
	InjuryActive    InjuryStatus = "injured"
	InjuryDoubtful  InjuryStatus = "doubtful"
	InjuryRecovered InjuryStatus = "recovered"
)

// Injury tracks a sidelined player for a team.
type Injury struct {
	ID             int64          `db:"id"              json:"id"`
	TeamID         int64          `db:"team_id"         json:"team_id"`
	PlayerName     string         `db:"player_name"     json:"player_name"`
	Position       string         `db:"position"        json:"position,omitempty"`
	Severity       InjurySeverity `db:"severity"        json:"severity"`
	Status         InjuryStatus   `db:"status"          json:"status"`
	InjuryDate     time.Time      `db:"injury_date"     json:"injury_date"`
	ExpectedReturn *time.Time     `db:"expected_return" json:"expected_return,omitempty"`
	ImpactScore    int            `db:"impact_score"    json:"impact_score"`
	CreatedAt      time.Time      `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"      json:"updated_at"`
}

// RuledOut reports whether the player is unavailable at the given date.
func (i *Injury) RuledOut(at time.Time) bool {
	if i.Status == InjuryRecovered {
		return false
	}
	if i.InjuryDate.After(at) {
		return false
	}
	return i.ExpectedReturn == nil || i.ExpectedReturn.After(at)
}
