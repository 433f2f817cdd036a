package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// LeagueRepo implements storage.LeagueRepository using PostgreSQL.
type LeagueRepo struct {
	db *DB
}

// NewLeagueRepo creates a new PostgreSQL league repository.
func NewLeagueRepo(db *DB) *LeagueRepo {
	return &LeagueRepo{db: db}
}

// Create inserts a league and fills in its ID.
func (r *LeagueRepo) Create(ctx context.Context, league *domain.League) error {
	const q = `
		INSERT INTO leagues (name, country, season, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		league.Name, league.Country, league.Season, league.Description,
	).Scan(&league.ID, &league.CreatedAt, &league.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create league: %w", err)
	}
	return nil
}

// GetByID retrieves a league by ID.
func (r *LeagueRepo) GetByID(ctx context.Context, id int64) (*domain.League, error) {
	var league domain.League
	err := r.db.GetContext(ctx, &league, `SELECT * FROM leagues WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return &league, nil
}

// GetByName retrieves a league by name.
func (r *LeagueRepo) GetByName(ctx context.Context, name string) (*domain.League, error) {
	var league domain.League
	err := r.db.GetContext(ctx, &league, `SELECT * FROM leagues WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league by name: %w", err)
	}
	return &league, nil
}

// List retrieves all leagues ordered by country and name.
func (r *LeagueRepo) List(ctx context.Context) ([]*domain.League, error) {
	var leagues []*domain.League
	err := r.db.SelectContext(ctx, &leagues,
		`SELECT * FROM leagues ORDER BY country, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	return leagues, nil
}

// Update updates mutable league fields.
func (r *LeagueRepo) Update(ctx context.Context, league *domain.League) error {
	const q = `
		UPDATE leagues
		SET name = $1, country = $2, season = $3, description = $4, updated_at = now()
		WHERE id = $5`
	res, err := r.db.ExecContext(ctx, q,
		league.Name, league.Country, league.Season, league.Description, league.ID)
	if err != nil {
		return fmt.Errorf("failed to update league: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a league. Teams and matches cascade.
func (r *LeagueRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leagues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete league: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Standings computes the league table from finished matches.
// Ordering follows league rules: points, goal difference, goals for, name.
func (r *LeagueRepo) Standings(ctx context.Context, leagueID int64) ([]*domain.StandingsRow, error) {
	const q = `
		WITH results AS (
			SELECT home_team_id AS team_id,
			       home_goals   AS gf,
			       away_goals   AS ga
			FROM matches
			WHERE league_id = $1 AND status = 'finished'
			UNION ALL
			SELECT away_team_id, away_goals, home_goals
			FROM matches
			WHERE league_id = $1 AND status = 'finished'
		)
		SELECT t.id AS team_id,
		       t.name AS team_name,
		       COUNT(r.team_id)                                      AS played,
		       COUNT(*) FILTER (WHERE r.gf > r.ga)                   AS wins,
		       COUNT(*) FILTER (WHERE r.gf = r.ga)                   AS draws,
		       COUNT(*) FILTER (WHERE r.gf < r.ga)                   AS losses,
		       COALESCE(SUM(r.gf), 0)                                AS goals_for,
		       COALESCE(SUM(r.ga), 0)                                AS goals_against,
		       COALESCE(SUM(r.gf), 0) - COALESCE(SUM(r.ga), 0)       AS goal_diff,
		       COUNT(*) FILTER (WHERE r.gf > r.ga) * 3
		         + COUNT(*) FILTER (WHERE r.gf = r.ga)               AS points
		FROM teams t
		LEFT JOIN results r ON r.team_id = t.id
		WHERE t.league_id = $1
		GROUP BY t.id, t.name
		ORDER BY points DESC, goal_diff DESC, goals_for DESC, team_name ASC`
	var rows []*domain.StandingsRow
	if err := r.db.SelectContext(ctx, &rows, q, leagueID); err != nil {
		return nil, fmt.Errorf("failed to compute standings: %w", err)
	}
	return rows, nil
}
