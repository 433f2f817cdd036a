package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// InjuryRepo implements storage.InjuryRepository using PostgreSQL.
type InjuryRepo struct {
	db *DB
}

// NewInjuryRepo creates a new PostgreSQL injury repository.
func NewInjuryRepo(db *DB) *InjuryRepo {
	return &InjuryRepo{db: db}
}

// Create inserts an injury record and fills in its ID.
func (r *InjuryRepo) Create(ctx context.Context, injury *domain.Injury) error {
	if injury.Severity == "" {
		injury.Severity = domain.SeverityMinor
	}
	if injury.Status == "" {
		injury.Status = domain.InjuryActive
	}
	const q = `
		INSERT INTO injuries (team_id, player_name, position, severity, status,
		                      injury_date, expected_return, impact_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		injury.TeamID, injury.PlayerName, injury.Position, injury.Severity, injury.Status,
		injury.InjuryDate, injury.ExpectedReturn, injury.ImpactScore,
	).Scan(&injury.ID, &injury.CreatedAt, &injury.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create injury: %w", err)
	}
	return nil
}

// GetByID retrieves an injury by ID.
func (r *InjuryRepo) GetByID(ctx context.Context, id int64) (*domain.Injury, error) {
	var injury domain.Injury
	err := r.db.GetContext(ctx, &injury, `SELECT * FROM injuries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get injury: %w", err)
	}
	return &injury, nil
}

// ListByTeam retrieves a team's injuries, newest first.
func (r *InjuryRepo) ListByTeam(ctx context.Context, teamID int64) ([]*domain.Injury, error) {
	var injuries []*domain.Injury
	err := r.db.SelectContext(ctx, &injuries,
		`SELECT * FROM injuries WHERE team_id = $1 ORDER BY injury_date DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list injuries: %w", err)
	}
	return injuries, nil
}

// CountActive counts players ruled out for a team at the given date,
// ignoring injuries reported before since.
func (r *InjuryRepo) CountActive(ctx context.Context, teamID int64, since, at time.Time) (int, error) {
	const q = `
		SELECT COUNT(*) FROM injuries
		WHERE team_id = $1
		  AND status <> 'recovered'
		  AND injury_date >= $2
		  AND injury_date <= $3
		  AND (expected_return IS NULL OR expected_return > $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, q, teamID, since, at); err != nil {
		return 0, fmt.Errorf("failed to count active injuries: %w", err)
	}
	return count, nil
}

// Update updates an injury record.
func (r *InjuryRepo) Update(ctx context.Context, injury *domain.Injury) error {
	const q = `
		UPDATE injuries
		SET player_name = $1, position = $2, severity = $3, status = $4,
		    injury_date = $5, expected_return = $6, impact_score = $7, updated_at = now()
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, q,
		injury.PlayerName, injury.Position, injury.Severity, injury.Status,
		injury.InjuryDate, injury.ExpectedReturn, injury.ImpactScore, injury.ID)
	if err != nil {
		return fmt.Errorf("failed to update injury: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteRecoveredBefore prunes recovered injuries older than the cutoff.
func (r *InjuryRepo) DeleteRecoveredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM injuries WHERE status = 'recovered' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune injuries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
