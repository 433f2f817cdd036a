package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// TeamRepo implements storage.TeamRepository using PostgreSQL.
type TeamRepo struct {
	db *DB
}

// NewTeamRepo creates a new PostgreSQL team repository.
func NewTeamRepo(db *DB) *TeamRepo {
	return &TeamRepo{db: db}
}

// Create inserts a team and fills in its ID.
func (r *TeamRepo) Create(ctx context.Context, team *domain.Team) error {
	if team.Rating == 0 {
		team.Rating = domain.DefaultRating
	}
	const q = `
		INSERT INTO teams (league_id, name, country, city, founded_year, stadium, home_advantage, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		team.LeagueID, team.Name, team.Country, team.City,
		team.FoundedYear, team.Stadium, team.HomeAdvantage, team.Rating,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by ID.
func (r *TeamRepo) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	var team domain.Team
	err := r.db.GetContext(ctx, &team, `SELECT * FROM teams WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

// GetByName retrieves a team by name within a league.
func (r *TeamRepo) GetByName(ctx context.Context, leagueID int64, name string) (*domain.Team, error) {
	var team domain.Team
	err := r.db.GetContext(ctx, &team,
		`SELECT * FROM teams WHERE league_id = $1 AND name = $2`, leagueID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by name: %w", err)
	}
	return &team, nil
}

// ListByLeague retrieves all teams in a league ordered by name.
func (r *TeamRepo) ListByLeague(ctx context.Context, leagueID int64) ([]*domain.Team, error) {
	var teams []*domain.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT * FROM teams WHERE league_id = $1 ORDER BY name`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// Update updates mutable team fields.
func (r *TeamRepo) Update(ctx context.Context, team *domain.Team) error {
	const q = `
		UPDATE teams
		SET name = $1, country = $2, city = $3, founded_year = $4,
		    stadium = $5, home_advantage = $6, updated_at = now()
		WHERE id = $7`
	res, err := r.db.ExecContext(ctx, q,
		team.Name, team.Country, team.City, team.FoundedYear,
		team.Stadium, team.HomeAdvantage, team.ID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateRating persists a new strength rating after a result.
func (r *TeamRepo) UpdateRating(ctx context.Context, teamID int64, rating float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE teams SET rating = $1, updated_at = now() WHERE id = $2`, rating, teamID)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
