package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// PickRepo implements storage.PickRepository using PostgreSQL.
type PickRepo struct {
	db *DB
}

// NewPickRepo creates a new PostgreSQL pick repository.
func NewPickRepo(db *DB) *PickRepo {
	return &PickRepo{db: db}
}

// Create inserts a pick, generating its ID when unset.
func (r *PickRepo) Create(ctx context.Context, pick *domain.Pick) error {
	if pick.ID == "" {
		pick.ID = uuid.NewString()
	}
	if pick.Status == "" {
		pick.Status = domain.PickPending
	}
	const q = `
		INSERT INTO picks (id, user_id, match_id, prediction, confidence,
		                   odds_selected, stake, potential, status, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		pick.ID, pick.UserID, pick.MatchID, pick.Prediction, pick.Confidence,
		pick.OddsSelected, pick.Stake, pick.Potential, pick.Status, pick.Reasoning,
	).Scan(&pick.CreatedAt, &pick.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create pick: %w", err)
	}
	return nil
}

// GetByID retrieves a pick by ID.
func (r *PickRepo) GetByID(ctx context.Context, id string) (*domain.Pick, error) {
	var pick domain.Pick
	err := r.db.GetContext(ctx, &pick, `SELECT * FROM picks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}
	return &pick, nil
}

// ListByUser retrieves a user's picks, newest first.
func (r *PickRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.Pick, error) {
	const q = `
		SELECT * FROM picks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	var picks []*domain.Pick
	if err := r.db.SelectContext(ctx, &picks, q, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return picks, nil
}

// ListPendingByMatch retrieves unsettled picks for a match.
func (r *PickRepo) ListPendingByMatch(ctx context.Context, matchID int64) ([]*domain.Pick, error) {
	const q = `SELECT * FROM picks WHERE match_id = $1 AND status = 'pending'`
	var picks []*domain.Pick
	if err := r.db.SelectContext(ctx, &picks, q, matchID); err != nil {
		return nil, fmt.Errorf("failed to list pending picks: %w", err)
	}
	return picks, nil
}

// Update updates a pick's settlement state.
func (r *PickRepo) Update(ctx context.Context, pick *domain.Pick) error {
	const q = `
		UPDATE picks
		SET prediction = $1, confidence = $2, odds_selected = $3, stake = $4,
		    potential = $5, status = $6, result = $7, reasoning = $8,
		    settled_at = $9, updated_at = now()
		WHERE id = $10`
	res, err := r.db.ExecContext(ctx, q,
		pick.Prediction, pick.Confidence, pick.OddsSelected, pick.Stake,
		pick.Potential, pick.Status, pick.Result, pick.Reasoning,
		pick.SettledAt, pick.ID)
	if err != nil {
		return fmt.Errorf("failed to update pick: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
