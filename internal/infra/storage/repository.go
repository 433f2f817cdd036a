package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
)

var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// LeagueRepository handles league storage operations
type LeagueRepository interface {
	// Create inserts a league and fills in its ID
	Create(ctx context.Context, league *domain.League) error

	// GetByID retrieves a league by ID
	GetByID(ctx context.Context, id int64) (*domain.League, error)

	// GetByName retrieves a league by name
	GetByName(ctx context.Context, name string) (*domain.League, error)

	// List retrieves all leagues
	List(ctx context.Context) ([]*domain.League, error)

	// Update updates mutable league fields
	Update(ctx context.Context, league *domain.League) error

	// Delete removes a league and its teams and matches
	Delete(ctx context.Context, id int64) error

	// Standings computes the league table from finished matches
	Standings(ctx context.Context, leagueID int64) ([]*domain.StandingsRow, error)
}

// TeamRepository handles team storage operations
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	GetByName(ctx context.Context, leagueID int64, name string) (*domain.Team, error)
	ListByLeague(ctx context.Context, leagueID int64) ([]*domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error

	// UpdateRating persists a new strength rating after a result
	UpdateRating(ctx context.Context, teamID int64, rating float64) error
}

// MatchRepository handles fixture storage operations
type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id int64) (*domain.Match, error)
	List(ctx context.Context, filter domain.MatchFilter) ([]*domain.Match, int, error)

	// ListByTeam retrieves a team's finished matches before a cutoff,
	// newest first, capped at limit (0 = uncapped)
	ListByTeam(ctx context.Context, teamID int64, before time.Time, limit int) ([]*domain.Match, error)

	// ListHeadToHead retrieves finished meetings between two teams before a
	// cutoff, newest first, capped at limit
	ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]*domain.Match, error)

	// ListFinished retrieves finished matches for training, oldest first
	ListFinished(ctx context.Context, leagueID int64, limit int) ([]*domain.Match, error)

	// ListUnsettled retrieves finished matches that still have unscored
	// predictions or pending picks
	ListUnsettled(ctx context.Context) ([]*domain.Match, error)

	Update(ctx context.Context, match *domain.Match) error
	UpdateOdds(ctx context.Context, matchID int64, home, draw, away float64) error
	Delete(ctx context.Context, id int64) error
}

// InjuryRepository handles injury storage operations
type InjuryRepository interface {
	Create(ctx context.Context, injury *domain.Injury) error
	GetByID(ctx context.Context, id int64) (*domain.Injury, error)
	ListByTeam(ctx context.Context, teamID int64) ([]*domain.Injury, error)

	// CountActive counts players ruled out for a team at the given date,
	// ignoring injuries reported before since (zero means no lower bound)
	CountActive(ctx context.Context, teamID int64, since, at time.Time) (int, error)

	Update(ctx context.Context, injury *domain.Injury) error

	// DeleteRecoveredBefore prunes recovered injuries older than the cutoff
	DeleteRecoveredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PredictionRepository handles model prediction storage operations
type PredictionRepository interface {
	Create(ctx context.Context, p *domain.Prediction) error

	// GetLatestByMatch retrieves the most recent prediction for a match
	GetLatestByMatch(ctx context.Context, matchID int64) (*domain.Prediction, error)

	// ListUnscored retrieves predictions for finished matches not yet scored
	ListUnscored(ctx context.Context) ([]*domain.Prediction, error)

	// Score marks a prediction correct or incorrect
	Score(ctx context.Context, id int64, correct bool) error

	// CountByMatch counts predictions stored for a match
	CountByMatch(ctx context.Context, matchID int64) (int, error)

	// Accuracy returns scored/correct counts for a model version
	Accuracy(ctx context.Context, modelVersion string) (scored, correct int, err error)
}

// UserRepository handles user account storage operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error

	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, profile *domain.UserProfile) error
}

// PickRepository handles user pick storage operations
type PickRepository interface {
	Create(ctx context.Context, pick *domain.Pick) error
	GetByID(ctx context.Context, id string) (*domain.Pick, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.Pick, error)

	// ListPendingByMatch retrieves unsettled picks for a match
	ListPendingByMatch(ctx context.Context, matchID int64) ([]*domain.Pick, error)

	Update(ctx context.Context, pick *domain.Pick) error
}
