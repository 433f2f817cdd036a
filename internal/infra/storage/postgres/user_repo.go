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

// UserRepo implements storage.UserRepository using PostgreSQL.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new PostgreSQL user repository.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user and fills in its ID. Returns storage.ErrDuplicate
// when the username or email is already taken.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	const q = `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, is_verified, created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, q,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
	).Scan(&user.ID, &user.IsActive, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (r *UserRepo) getBy(ctx context.Context, q string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Update updates mutable user fields. Returns storage.ErrDuplicate when the
// new username or email collides with another account.
func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	const q = `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, first_name = $4,
		    last_name = $5, is_active = $6, is_verified = $7, updated_at = now()
		WHERE id = $8`
	res, err := r.db.ExecContext(ctx, q,
		user.Username, user.Email, user.PasswordHash, user.FirstName,
		user.LastName, user.IsActive, user.IsVerified, user.ID)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to touch last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetProfile retrieves a user's prediction profile, returning an empty
// profile when the user has not made any picks yet.
func (r *UserRepo) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM user_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.UserProfile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile upserts a user's prediction profile.
func (r *UserRepo) SaveProfile(ctx context.Context, profile *domain.UserProfile) error {
	const q = `
		INSERT INTO user_profiles (user_id, total_predictions, correct_predictions,
		                           win_rate, total_stake, total_winnings, net_profit,
		                           roi, streak_wins, streak_losses, best_streak)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			total_predictions = EXCLUDED.total_predictions,
			correct_predictions = EXCLUDED.correct_predictions,
			win_rate = EXCLUDED.win_rate,
			total_stake = EXCLUDED.total_stake,
			total_winnings = EXCLUDED.total_winnings,
			net_profit = EXCLUDED.net_profit,
			roi = EXCLUDED.roi,
			streak_wins = EXCLUDED.streak_wins,
			streak_losses = EXCLUDED.streak_losses,
			best_streak = EXCLUDED.best_streak,
			updated_at = now()`
	_, err := r.db.ExecContext(ctx, q,
		profile.UserID, profile.TotalPredictions, profile.CorrectPredictions,
		profile.WinRate, profile.TotalStake, profile.TotalWinnings, profile.NetProfit,
		profile.ROI, profile.StreakWins, profile.StreakLosses, profile.BestStreak)
	if err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}
