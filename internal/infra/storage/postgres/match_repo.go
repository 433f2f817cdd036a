package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// MatchRepo implements storage.MatchRepository using PostgreSQL.
type MatchRepo struct {
	db *DB
}

// NewMatchRepo creates a new PostgreSQL match repository.
func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create inserts a match and fills in its ID.
func (r *MatchRepo) Create(ctx context.Context, match *domain.Match) error {
	if match.Status == "" {
		match.Status = domain.MatchScheduled
	}
	const q = `
		INSERT INTO matches (league_id, home_team_id, away_team_id, kickoff_at, matchweek,
		                     home_goals, away_goals, status, odds_home_win, odds_draw,
		                     odds_away_win, venue, referee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		match.LeagueID, match.HomeTeamID, match.AwayTeamID, match.KickoffAt, match.Matchweek,
		match.HomeGoals, match.AwayGoals, match.Status, match.OddsHomeWin, match.OddsDraw,
		match.OddsAwayWin, match.Venue, match.Referee,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID.
func (r *MatchRepo) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	var match domain.Match
	err := r.db.GetContext(ctx, &match, `SELECT * FROM matches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

// List retrieves matches matching the filter, newest kickoff first,
// and the total count before pagination.
func (r *MatchRepo) List(ctx context.Context, filter domain.MatchFilter) ([]*domain.Match, int, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.LeagueID != 0 {
		conds = append(conds, "league_id = "+arg(filter.LeagueID))
	}
	if filter.TeamID != 0 {
		p := arg(filter.TeamID)
		conds = append(conds, fmt.Sprintf("(home_team_id = %s OR away_team_id = %s)", p, p))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(filter.Status))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM matches"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	// Limit <= 0 means no cap; page-size defaults belong to the API
	// handlers. Workers rely on an unfiltered scan per league.
	limit := filter.Limit
	if limit < 0 {
		limit = 0
	}
	q := "SELECT * FROM matches" + where +
		" ORDER BY kickoff_at DESC LIMIT NULLIF(" + arg(limit) + ", 0) OFFSET " + arg(filter.Offset)

	var matches []*domain.Match
	if err := r.db.SelectContext(ctx, &matches, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, total, nil
}

// ListByTeam retrieves a team's finished matches before a cutoff, newest first.
func (r *MatchRepo) ListByTeam(ctx context.Context, teamID int64, before time.Time, limit int) ([]*domain.Match, error) {
	const q = `
		SELECT * FROM matches
		WHERE (home_team_id = $1 OR away_team_id = $1)
		  AND status = 'finished'
		  AND kickoff_at < $2
		ORDER BY kickoff_at DESC
		LIMIT NULLIF($3, 0)`
	var matches []*domain.Match
	if err := r.db.SelectContext(ctx, &matches, q, teamID, before, limit); err != nil {
		return nil, fmt.Errorf("failed to list team matches: %w", err)
	}
	return matches, nil
}

// ListHeadToHead retrieves finished meetings between two teams before a cutoff,
// newest first.
func (r *MatchRepo) ListHeadToHead(ctx context.Context, teamA, teamB int64, before time.Time, limit int) ([]*domain.Match, error) {
	const q = `
		SELECT * FROM matches
		WHERE ((home_team_id = $1 AND away_team_id = $2)
		    OR (home_team_id = $2 AND away_team_id = $1))
		  AND status = 'finished'
		  AND kickoff_at < $3
		ORDER BY kickoff_at DESC
		LIMIT NULLIF($4, 0)`
	var matches []*domain.Match
	if err := r.db.SelectContext(ctx, &matches, q, teamA, teamB, before, limit); err != nil {
		return nil, fmt.Errorf("failed to list head-to-head matches: %w", err)
	}
	return matches, nil
}

// ListFinished retrieves finished matches for training, oldest first so the
// chronological train/test split holds.
func (r *MatchRepo) ListFinished(ctx context.Context, leagueID int64, limit int) ([]*domain.Match, error) {
	args := []any{limit}
	league := ""
	if leagueID != 0 {
		league = " AND league_id = $2"
		args = append(args, leagueID)
	}
	q := `
		SELECT * FROM matches
		WHERE status = 'finished' AND home_goals IS NOT NULL AND away_goals IS NOT NULL` +
		league + `
		ORDER BY kickoff_at ASC
		LIMIT NULLIF($1, 0)`
	var matches []*domain.Match
	if err := r.db.SelectContext(ctx, &matches, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	return matches, nil
}

// ListUnsettled retrieves finished matches that still carry unscored
// predictions or pending picks.
func (r *MatchRepo) ListUnsettled(ctx context.Context) ([]*domain.Match, error) {
	const q = `
		SELECT DISTINCT m.* FROM matches m
		LEFT JOIN predictions p ON p.match_id = m.id AND p.was_correct IS NULL
		LEFT JOIN picks k ON k.match_id = m.id AND k.status = 'pending'
		WHERE m.status = 'finished'
		  AND (p.id IS NOT NULL OR k.id IS NOT NULL)`
	var matches []*domain.Match
	if err := r.db.SelectContext(ctx, &matches, q); err != nil {
		return nil, fmt.Errorf("failed to list unsettled matches: %w", err)
	}
	return matches, nil
}

// Update updates match fields, typically recording a final result.
func (r *MatchRepo) Update(ctx context.Context, match *domain.Match) error {
	const q = `
		UPDATE matches
		SET kickoff_at = $1, matchweek = $2, home_goals = $3, away_goals = $4,
		    status = $5, venue = $6, referee = $7, updated_at = now()
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, q,
		match.KickoffAt, match.Matchweek, match.HomeGoals, match.AwayGoals,
		match.Status, match.Venue, match.Referee, match.ID)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateOdds refreshes the 1X2 odds on a match.
func (r *MatchRepo) UpdateOdds(ctx context.Context, matchID int64, home, draw, away float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE matches SET odds_home_win = $1, odds_draw = $2, odds_away_win = $3, updated_at = now() WHERE id = $4`,
		home, draw, away, matchID)
	if err != nil {
		return fmt.Errorf("failed to update odds: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a match. Predictions and picks cascade.
func (r *MatchRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
