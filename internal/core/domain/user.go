package domain

import "time"

// User represents a registered account.
type User struct {
	ID           int64      `db:"id"            json:"id"`
	Username     string     `db:"username"      json:"username"`
	Email        string     `db:"email"         json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name"    json:"first_name,omitempty"`
	LastName     string     `db:"last_name"     json:"last_name,omitempty"`
	IsActive     bool       `db:"is_active"     json:"is_active"`
	IsVerified   bool       `db:"is_verified"   json:"is_verified"`
	LastLogin    *time.Time `db:"last_login"    json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// UserProfile carries aggregate prediction statistics for a user.
// Updated by the settle worker as picks resolve.
type UserProfile struct {
	UserID             int64     `db:"user_id"             json:"user_id"`
	TotalPredictions   int       `db:"total_predictions"   json:"total_predictions"`
	CorrectPredictions int       `db:"correct_predictions" json:"correct_predictions"`
	WinRate            float64   `db:"win_rate"            json:"win_rate"`
	TotalStake         float64   `db:"total_stake"         json:"total_stake"`
	TotalWinnings      float64   `db:"total_winnings"      json:"total_winnings"`
	NetProfit          float64   `db:"net_profit"          json:"net_profit"`
	ROI                float64   `db:"roi"                 json:"roi"`
	StreakWins         int       `db:"streak_wins"         json:"streak_wins"`
	StreakLosses       int       `db:"streak_losses"       json:"streak_losses"`
	BestStreak         int       `db:"best_streak"         json:"best_streak"`
	UpdatedAt          time.Time `db:"updated_at"          json:"updated_at"`
}
