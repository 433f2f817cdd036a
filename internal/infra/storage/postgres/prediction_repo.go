package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// PredictionRepo implements storage.PredictionRepository using PostgreSQL.
type PredictionRepo struct {
	db *DB
}

// NewPredictionRepo creates a new PostgreSQL prediction repository.
func NewPredictionRepo(db *DB) *PredictionRepo {
	return &PredictionRepo{db: db}
}

// Create inserts a prediction and fills in its ID.
func (r *PredictionRepo) Create(ctx context.Context, p *domain.Prediction) error {
	if p.Outcome == "" {
		p.Outcome = p.Pick()
	}
	const q = `
		INSERT INTO predictions (match_id, prob_home, prob_draw, prob_away,
		                         exp_goals_home, exp_goals_away, confidence,
		                         model_version, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, q,
		p.MatchID, p.ProbHome, p.ProbDraw, p.ProbAway,
		p.ExpGoalsHome, p.ExpGoalsAway, p.Confidence, p.ModelVersion, p.Outcome,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

// GetLatestByMatch retrieves the most recent prediction for a match.
func (r *PredictionRepo) GetLatestByMatch(ctx context.Context, matchID int64) (*domain.Prediction, error) {
	var p domain.Prediction
	const q = `SELECT * FROM predictions WHERE match_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &p, q, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return &p, nil
}

// ListUnscored retrieves predictions for finished matches that have not been
// marked correct or incorrect yet.
func (r *PredictionRepo) ListUnscored(ctx context.Context) ([]*domain.Prediction, error) {
	const q = `
		SELECT p.* FROM predictions p
		JOIN matches m ON m.id = p.match_id
		WHERE p.was_correct IS NULL AND m.status = 'finished'
		ORDER BY p.created_at ASC`
	var preds []*domain.Prediction
	if err := r.db.SelectContext(ctx, &preds, q); err != nil {
		return nil, fmt.Errorf("failed to list unscored predictions: %w", err)
	}
	return preds, nil
}

// Score marks a prediction correct or incorrect.
func (r *PredictionRepo) Score(ctx context.Context, id int64, correct bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE predictions SET was_correct = $1 WHERE id = $2`, correct, id)
	if err != nil {
		return fmt.Errorf("failed to score prediction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountByMatch counts predictions stored for a match.
func (r *PredictionRepo) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM predictions WHERE match_id = $1`, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// Accuracy returns scored and correct prediction counts for a model version.
func (r *PredictionRepo) Accuracy(ctx context.Context, modelVersion string) (int, int, error) {
	const q = `
		SELECT COUNT(*) AS scored,
		       COUNT(*) FILTER (WHERE was_correct) AS correct
		FROM predictions
		WHERE was_correct IS NOT NULL AND model_version = $1`
	var row struct {
		Scored  int `db:"scored"`
		Correct int `db:"correct"`
	}
	if err := r.db.GetContext(ctx, &row, q, modelVersion); err != nil {
		return 0, 0, fmt.Errorf("failed to compute prediction accuracy: %w", err)
	}
	return row.Scored, row.Correct, nil
}
