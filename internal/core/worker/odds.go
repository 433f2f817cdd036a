package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/feed"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// OddsWorker refreshes 1X2 odds on upcoming matches and drops any cached
// prediction whose inputs just moved.
type OddsWorker struct {
	cfg     config.JobsConfig
	feed    feed.Provider
	leagues storage.LeagueRepository
	teams   storage.TeamRepository
	matches storage.MatchRepository
	cache   Cache
	logger  *slog.Logger
}

// NewOddsWorker creates a new odds refresh worker.
func NewOddsWorker(
	cfg config.JobsConfig,
	provider feed.Provider,
	leagues storage.LeagueRepository,
	teams storage.TeamRepository,
	matches storage.MatchRepository,
	cache Cache,
	logger *slog.Logger,
) *OddsWorker {
	return &OddsWorker{
		cfg:     cfg,
		feed:    provider,
		leagues: leagues,
		teams:   teams,
		matches: matches,
		cache:   cache,
		logger:  logger.With("worker", "odds"),
	}
}

// Start runs the odds refresh loop.
func (w *OddsWorker) Start(ctx context.Context) {
	if w.cfg.OddsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.cfg.OddsInterval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *OddsWorker) refresh(ctx context.Context) {
	competitions, err := w.feed.Competitions(ctx)
	if err != nil {
		w.logger.Error("failed to list competitions", "error", err)
		return
	}

	for _, comp := range competitions {
		league, err := w.leagues.GetByName(ctx, comp.Name)
		if err != nil {
			continue // not a tracked league
		}
		if err := w.refreshLeague(ctx, league, comp.ExternalID); err != nil {
			w.logger.Error("odds refresh failed", "league", league.Name, "error", err)
		}
	}
}

func (w *OddsWorker) refreshLeague(ctx context.Context, league *domain.League, competitionID int64) error {
	prices, err := w.feed.Odds(ctx, competitionID)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		return nil
	}

	upcoming, _, err := w.matches.List(ctx, domain.MatchFilter{
		LeagueID: league.ID,
		Status:   domain.MatchScheduled,
	})
	if err != nil {
		return err
	}

	// Index scheduled matches by team names for feed lookup.
	type pairing struct{ home, away string }
	index := make(map[pairing]*domain.Match, len(upcoming))
	for _, m := range upcoming {
		home, err := w.teams.GetByID(ctx, m.HomeTeamID)
		if err != nil {
			continue
		}
		away, err := w.teams.GetByID(ctx, m.AwayTeamID)
		if err != nil {
			continue
		}
		index[pairing{strings.ToLower(home.Name), strings.ToLower(away.Name)}] = m
	}

	var refreshed int
	for _, price := range prices {
		if price.HomeWin <= 1 || price.Draw <= 1 || price.AwayWin <= 1 {
			continue
		}
		match, ok := index[pairing{strings.ToLower(price.HomeTeam), strings.ToLower(price.AwayTeam)}]
		if !ok {
			continue
		}
		if err := w.matches.UpdateOdds(ctx, match.ID, price.HomeWin, price.Draw, price.AwayWin); err != nil {
			w.logger.Error("failed to update odds", "match_id", match.ID, "error", err)
			continue
		}
		if w.cache != nil {
			if err := w.cache.InvalidatePrediction(ctx, match.ID); err != nil {
				w.logger.Warn("failed to invalidate cached prediction", "match_id", match.ID, "error", err)
			}
		}
		refreshed++
	}

	if refreshed > 0 {
		w.logger.Info("odds refreshed", "league", league.Name, "matches", refreshed)
	}
	return nil
}
