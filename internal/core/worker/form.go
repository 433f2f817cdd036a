package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

const (
	formShortWindow = 5
	formLongWindow  = 10
	seasonWindow    = 0 // unbounded
)

// FormWorker recomputes rolling team form, head-to-head records for
// upcoming fixtures, and league standings, writing everything through to
// the cache.
type FormWorker struct {
	cfg      config.JobsConfig
	cacheTTL time.Duration
	leagues  storage.LeagueRepository
	teams    storage.TeamRepository
	matches  storage.MatchRepository
	cache    Cache
	logger   *slog.Logger
}

// NewFormWorker creates a new form recompute worker.
func NewFormWorker(
	cfg config.JobsConfig,
	cacheTTL time.Duration,
	leagues storage.LeagueRepository,
	teams storage.TeamRepository,
	matches storage.MatchRepository,
	cache Cache,
	logger *slog.Logger,
) *FormWorker {
	return &FormWorker{
		cfg:      cfg,
		cacheTTL: cacheTTL,
		leagues:  leagues,
		teams:    teams,
		matches:  matches,
		cache:    cache,
		logger:   logger.With("worker", "form"),
	}
}

// Start runs the form recompute loop.
func (w *FormWorker) Start(ctx context.Context) {
	if w.cfg.FormInterval <= 0 || w.cache == nil {
		return
	}
	ticker := time.NewTicker(w.cfg.FormInterval)
	defer ticker.Stop()

	w.recompute(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.recompute(ctx)
		}
	}
}

func (w *FormWorker) recompute(ctx context.Context) {
	leagues, err := w.leagues.List(ctx)
	if err != nil {
		w.logger.Error("failed to list leagues", "error", err)
		return
	}

	for _, league := range leagues {
		if err := w.recomputeLeague(ctx, league); err != nil {
			w.logger.Error("form recompute failed", "league", league.Name, "error", err)
		}
	}
}

func (w *FormWorker) recomputeLeague(ctx context.Context, league *domain.League) error {
	teams, err := w.teams.ListByLeague(ctx, league.ID)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}

	now := time.Now()
	for _, team := range teams {
		form, err := w.ComputeForm(ctx, team.ID, now)
		if err != nil {
			return err
		}
		if err := w.cache.SetForm(ctx, form, w.cacheTTL); err != nil {
			w.logger.Warn("failed to cache form", "team_id", team.ID, "error", err)
		}
	}

	// Head-to-head records only matter for fixtures on the calendar.
	upcoming, _, err := w.matches.List(ctx, domain.MatchFilter{
		LeagueID: league.ID,
		Status:   domain.MatchScheduled,
	})
	if err != nil {
		return fmt.Errorf("failed to list upcoming matches: %w", err)
	}
	for _, m := range upcoming {
		h2h, err := w.ComputeHeadToHead(ctx, m.HomeTeamID, m.AwayTeamID, now)
		if err != nil {
			return err
		}
		if err := w.cache.SetHeadToHead(ctx, h2h, w.cacheTTL); err != nil {
			w.logger.Warn("failed to cache head-to-head", "match_id", m.ID, "error", err)
		}
	}

	table, err := w.leagues.Standings(ctx, league.ID)
	if err != nil {
		return fmt.Errorf("failed to compute standings: %w", err)
	}
	if err := w.cache.SetStandings(ctx, league.ID, table, w.cacheTTL); err != nil {
		w.logger.Warn("failed to cache standings", "league_id", league.ID, "error", err)
	}
	return nil
}

// ComputeForm builds a team's rolling form snapshot from stored results.
func (w *FormWorker) ComputeForm(ctx context.Context, teamID int64, at time.Time) (*domain.TeamForm, error) {
	history, err := w.matches.ListByTeam(ctx, teamID, at, seasonWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load team history: %w", err)
	}

	form := &domain.TeamForm{
		TeamID:    teamID,
		Last5:     windowStats(history, teamID, formShortWindow),
		Last10:    windowStats(history, teamID, formLongWindow),
		Season:    windowStats(history, teamID, 0),
		UpdatedAt: at,
	}
	if played := form.Season.Played(); played > 0 {
		var scored, conceded int
		for _, m := range history {
			gf, ga := perspectiveGoals(m, teamID)
			scored += gf
			conceded += ga
		}
		form.AvgGoalsScored = float64(scored) / float64(played)
		form.AvgGoalsConceded = float64(conceded) / float64(played)
	}
	if played := form.Last5.Played(); played > 0 {
		form.FormRating = float64(form.Last5.Points()) / float64(played*3) * 100
	}
	return form, nil
}

// ComputeHeadToHead builds the record between two teams, from teamA's
// perspective. Recent counters cover the last five meetings.
func (w *FormWorker) ComputeHeadToHead(ctx context.Context, teamA, teamB int64, at time.Time) (*domain.HeadToHead, error) {
	meetings, err := w.matches.ListHeadToHead(ctx, teamA, teamB, at, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load head-to-head: %w", err)
	}

	h2h := &domain.HeadToHead{TeamAID: teamA, TeamBID: teamB, UpdatedAt: at}
	for i, m := range meetings {
		gfA, gfB := perspectiveGoals(m, teamA)
		h2h.TotalMatches++
		h2h.AGoals += gfA
		h2h.BGoals += gfB
		recent := i < formShortWindow // meetings are newest first
		switch {
		case gfA > gfB:
			h2h.AWins++
			if recent {
				h2h.RecentAWins++
			}
			if m.HomeTeamID == teamA {
				h2h.AHomeWins++
			}
		case gfB > gfA:
			h2h.BWins++
			if recent {
				h2h.RecentBWins++
			}
		default:
			h2h.Draws++
			if recent {
				h2h.RecentDraws++
			}
		}
	}
	if h2h.TotalMatches > 0 {
		h2h.AWinRate = float64(h2h.AWins) / float64(h2h.TotalMatches)
		h2h.AvgGoals = float64(h2h.AGoals+h2h.BGoals) / float64(h2h.TotalMatches)
	}
	return h2h, nil
}

// windowStats aggregates the newest n matches (all when n is 0) from the
// team's perspective.
func windowStats(history []*domain.Match, teamID int64, n int) domain.WindowStats {
	if n > 0 && n < len(history) {
		history = history[:n]
	}
	var stats domain.WindowStats
	for _, m := range history {
		gf, ga := perspectiveGoals(m, teamID)
		stats.GoalsFor += gf
		stats.GoalsAgainst += ga
		switch {
		case gf > ga:
			stats.Wins++
		case gf < ga:
			stats.Losses++
		default:
			stats.Draws++
		}
	}
	return stats
}

// perspectiveGoals returns goals for and against from teamID's side.
func perspectiveGoals(m *domain.Match, teamID int64) (int, int) {
	if m.HomeTeamID == teamID {
		return *m.HomeGoals, *m.AwayGoals
	}
	return *m.AwayGoals, *m.HomeGoals
}
