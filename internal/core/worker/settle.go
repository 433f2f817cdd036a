package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
	"github.com/pitchside/predictor/internal/metrics"
	"github.com/pitchside/predictor/internal/ml"
)

// SettleWorker processes finished matches: it scores stored predictions,
// settles user picks, rolls the results into user profiles, applies Elo
// rating updates, and drops stale caches.
type SettleWorker struct {
	cfg         config.JobsConfig
	matches     storage.MatchRepository
	teams       storage.TeamRepository
	predictions storage.PredictionRepository
	picks       storage.PickRepository
	users       storage.UserRepository
	cache       Cache
	logger      *slog.Logger

	// rated guards against exchanging Elo twice when a later settlement
	// step fails and the match is retried on the next cycle. Only the
	// settle loop touches it.
	rated map[int64]bool
}

// NewSettleWorker creates a new settlement worker.
func NewSettleWorker(
	cfg config.JobsConfig,
	matches storage.MatchRepository,
	teams storage.TeamRepository,
	predictions storage.PredictionRepository,
	picks storage.PickRepository,
	users storage.UserRepository,
	cache Cache,
	logger *slog.Logger,
) *SettleWorker {
	return &SettleWorker{
		cfg:         cfg,
		matches:     matches,
		teams:       teams,
		predictions: predictions,
		picks:       picks,
		users:       users,
		cache:       cache,
		logger:      logger.With("worker", "settle"),
		rated:       make(map[int64]bool),
	}
}

// Start runs the settlement loop.
func (w *SettleWorker) Start(ctx context.Context) {
	if w.cfg.SettleInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.cfg.SettleInterval)
	defer ticker.Stop()

	w.settle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.settle(ctx)
		}
	}
}

func (w *SettleWorker) settle(ctx context.Context) {
	unsettled, err := w.matches.ListUnsettled(ctx)
	if err != nil {
		w.logger.Error("failed to list unsettled matches", "error", err)
		return
	}

	for _, match := range unsettled {
		if err := w.settleMatch(ctx, match); err != nil {
			w.logger.Error("failed to settle match", "match_id", match.ID, "error", err)
			continue
		}
		metrics.MatchesSettled.Inc()
	}

	if len(unsettled) > 0 {
		w.publishAccuracy(ctx)
		w.logger.Info("settlement cycle complete", "matches", len(unsettled))
	}
}

func (w *SettleWorker) settleMatch(ctx context.Context, match *domain.Match) error {
	outcome := match.Outcome()
	if outcome == "" {
		return fmt.Errorf("match %d has no result", match.ID)
	}

	// Ratings go first: scoring and pick settlement remove the match from
	// the unsettled set, so a rating failure after them would never retry.
	if !w.rated[match.ID] {
		if err := w.applyRatings(ctx, match, outcome); err != nil {
			return err
		}
		w.rated[match.ID] = true
	}
	if err := w.scorePredictions(ctx, match, outcome); err != nil {
		return err
	}
	if err := w.settlePicks(ctx, match, outcome); err != nil {
		return err
	}
	delete(w.rated, match.ID)

	if w.cache != nil {
		if err := w.cache.InvalidateStandings(ctx, match.LeagueID); err != nil {
			w.logger.Warn("failed to invalidate standings", "league_id", match.LeagueID, "error", err)
		}
		if err := w.cache.InvalidatePrediction(ctx, match.ID); err != nil {
			w.logger.Warn("failed to invalidate prediction", "match_id", match.ID, "error", err)
		}
	}
	return nil
}

// scorePredictions marks every unscored prediction for the match.
func (w *SettleWorker) scorePredictions(ctx context.Context, match *domain.Match, outcome domain.Outcome) error {
	unscored, err := w.predictions.ListUnscored(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unscored predictions: %w", err)
	}
	for _, p := range unscored {
		if p.MatchID != match.ID {
			continue
		}
		if err := w.predictions.Score(ctx, p.ID, p.Outcome == outcome); err != nil {
			return fmt.Errorf("failed to score prediction %d: %w", p.ID, err)
		}
	}
	return nil
}

// settlePicks resolves pending picks and updates each owner's profile.
func (w *SettleWorker) settlePicks(ctx context.Context, match *domain.Match, outcome domain.Outcome) error {
	pending, err := w.picks.ListPendingByMatch(ctx, match.ID)
	if err != nil {
		return fmt.Errorf("failed to list pending picks: %w", err)
	}

	now := time.Now()
	for _, pick := range pending {
		pick.Settle(outcome, now)
		if err := w.picks.Update(ctx, pick); err != nil {
			return fmt.Errorf("failed to update pick %s: %w", pick.ID, err)
		}
		if err := w.updateProfile(ctx, pick); err != nil {
			return err
		}
	}
	return nil
}

// updateProfile rolls a settled pick into its owner's aggregate stats.
func (w *SettleWorker) updateProfile(ctx context.Context, pick *domain.Pick) error {
	profile, err := w.users.GetProfile(ctx, pick.UserID)
	if err != nil {
		return fmt.Errorf("failed to load profile for user %d: %w", pick.UserID, err)
	}

	profile.TotalPredictions++
	if pick.Status == domain.PickWon {
		profile.CorrectPredictions++
		profile.StreakWins++
		profile.StreakLosses = 0
		if profile.StreakWins > profile.BestStreak {
			profile.BestStreak = profile.StreakWins
		}
	} else {
		profile.StreakLosses++
		profile.StreakWins = 0
	}
	profile.WinRate = float64(profile.CorrectPredictions) / float64(profile.TotalPredictions)

	if pick.Stake != nil {
		profile.TotalStake += *pick.Stake
		profile.TotalWinnings += pick.Winnings()
		profile.NetProfit = profile.TotalWinnings - profile.TotalStake
		if profile.TotalStake > 0 {
			profile.ROI = profile.NetProfit / profile.TotalStake
		}
	}

	if err := w.users.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile for user %d: %w", pick.UserID, err)
	}
	return nil
}

// applyRatings exchanges Elo rating between the two sides.
func (w *SettleWorker) applyRatings(ctx context.Context, match *domain.Match, outcome domain.Outcome) error {
	home, err := w.teams.GetByID(ctx, match.HomeTeamID)
	if err != nil {
		return fmt.Errorf("failed to load home team: %w", err)
	}
	away, err := w.teams.GetByID(ctx, match.AwayTeamID)
	if err != nil {
		return fmt.Errorf("failed to load away team: %w", err)
	}

	newHome, newAway := ml.UpdateRatings(home.Rating, away.Rating, outcome)
	if err := w.teams.UpdateRating(ctx, home.ID, newHome); err != nil {
		return fmt.Errorf("failed to update home rating: %w", err)
	}
	if err := w.teams.UpdateRating(ctx, away.ID, newAway); err != nil {
		return fmt.Errorf("failed to update away rating: %w", err)
	}
	return nil
}

// publishAccuracy refreshes the rolling accuracy gauge.
func (w *SettleWorker) publishAccuracy(ctx context.Context) {
	scored, correct, err := w.predictions.Accuracy(ctx, ml.ModelVersion)
	if err != nil {
		w.logger.Warn("failed to compute accuracy", "error", err)
		return
	}
	if scored > 0 {
		metrics.PredictionAccuracy.WithLabelValues(ml.ModelVersion).Set(float64(correct) / float64(scored))
	}
}
