package ml

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// FeatureNames is the fixed, ordered design-matrix layout. Models and the
// importance report index into this slice, so the order must not change
// between training and prediction.
var FeatureNames = []string{
	"home_win_rate",
	"home_draw_rate",
	"home_goals_scored_avg",
	"home_goals_conceded_avg",
	"home_form_points",
	"away_win_rate",
	"away_draw_rate",
	"away_goals_scored_avg",
	"away_goals_conceded_avg",
	"away_form_points",
	"form_diff",
	"h2h_home_win_rate",
	"h2h_away_win_rate",
	"h2h_avg_goals",
	"home_injuries",
	"away_injuries",
	"odds_home",
	"odds_draw",
	"odds_away",
	"home_rest_days",
	"away_rest_days",
	"home_advantage",
	"rating_diff",
}

// Neutral defaults for teams with no recorded history.
const (
	defaultWinRate   = 1.0 / 3.0
	defaultDrawRate  = 1.0 / 3.0
	defaultGoalsAvg  = 1.3
	defaultRestDays  = 7.0
	maxRestDays      = 14.0
	maxInjuryCount   = 5.0
	formPointsPerWin = 3.0
)

// FeatureEngineer builds feature vectors for matches from stored history.
type FeatureEngineer struct {
	matches  storage.MatchRepository
	teams    storage.TeamRepository
	injuries storage.InjuryRepository

	formWindow   int
	h2hWindow    int
	injuryWindow time.Duration
}

// NewFeatureEngineer creates a feature engineer over the given repositories.
func NewFeatureEngineer(
	matches storage.MatchRepository,
	teams storage.TeamRepository,
	injuries storage.InjuryRepository,
	formWindow, h2hWindow int,
	injuryWindow time.Duration,
) *FeatureEngineer {
	return &FeatureEngineer{
		matches:      matches,
		teams:        teams,
		injuries:     injuries,
		formWindow:   formWindow,
		h2hWindow:    h2hWindow,
		injuryWindow: injuryWindow,
	}
}

// Features computes the feature vector for a match using only history
// strictly before kickoff, so training rows never leak the result.
func (fe *FeatureEngineer) Features(ctx context.Context, match *domain.Match) ([]float64, error) {
	home, err := fe.teams.GetByID(ctx, match.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load home team: %w", err)
	}
	away, err := fe.teams.GetByID(ctx, match.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load away team: %w", err)
	}

	homeHist, err := fe.matches.ListByTeam(ctx, home.ID, match.KickoffAt, fe.formWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load home history: %w", err)
	}
	awayHist, err := fe.matches.ListByTeam(ctx, away.ID, match.KickoffAt, fe.formWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load away history: %w", err)
	}
	h2h, err := fe.matches.ListHeadToHead(ctx, home.ID, away.ID, match.KickoffAt, fe.h2hWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load head-to-head: %w", err)
	}

	injuryCutoff := match.KickoffAt
	var injurySince time.Time
	if fe.injuryWindow > 0 {
		injurySince = injuryCutoff.Add(-fe.injuryWindow)
	}
	homeInjuries, err := fe.injuries.CountActive(ctx, home.ID, injurySince, injuryCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count home injuries: %w", err)
	}
	awayInjuries, err := fe.injuries.CountActive(ctx, away.ID, injurySince, injuryCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count away injuries: %w", err)
	}

	homeForm := formStats(homeHist, home.ID)
	awayForm := formStats(awayHist, away.ID)

	oddsHome, oddsDraw, oddsAway := impliedProbabilities(match)

	x := make([]float64, len(FeatureNames))
	x[0] = homeForm.winRate
	x[1] = homeForm.drawRate
	x[2] = homeForm.goalsScoredAvg
	x[3] = homeForm.goalsConcededAvg
	x[4] = homeForm.points
	x[5] = awayForm.winRate
	x[6] = awayForm.drawRate
	x[7] = awayForm.goalsScoredAvg
	x[8] = awayForm.goalsConcededAvg
	x[9] = awayForm.points
	x[10] = homeForm.points - awayForm.points
	x[11], x[12], x[13] = h2hRates(h2h, home.ID)
	x[14] = math.Min(float64(homeInjuries), maxInjuryCount)
	x[15] = math.Min(float64(awayInjuries), maxInjuryCount)
	x[16] = oddsHome
	x[17] = oddsDraw
	x[18] = oddsAway
	x[19] = restDays(homeHist, match.KickoffAt)
	x[20] = restDays(awayHist, match.KickoffAt)
	x[21] = home.HomeAdvantage
	x[22] = home.Rating - away.Rating
	return x, nil
}

type teamFormStats struct {
	winRate          float64
	drawRate         float64
	goalsScoredAvg   float64
	goalsConcededAvg float64
	points           float64
}

// formStats aggregates a team's recent results from its perspective.
func formStats(history []*domain.Match, teamID int64) teamFormStats {
	if len(history) == 0 {
		return teamFormStats{
			winRate:          defaultWinRate,
			drawRate:         defaultDrawRate,
			goalsScoredAvg:   defaultGoalsAvg,
			goalsConcededAvg: defaultGoalsAvg,
			points:           defaultWinRate * formPointsPerWin,
		}
	}
	var wins, draws, scored, conceded int
	for _, m := range history {
		gf, ga := goalsFor(m, teamID)
		scored += gf
		conceded += ga
		switch {
		case gf > ga:
			wins++
		case gf == ga:
			draws++
		}
	}
	n := float64(len(history))
	return teamFormStats{
		winRate:          float64(wins) / n,
		drawRate:         float64(draws) / n,
		goalsScoredAvg:   float64(scored) / n,
		goalsConcededAvg: float64(conceded) / n,
		points:           float64(wins*3+draws) / n,
	}
}

// goalsFor returns goals scored and conceded from teamID's perspective.
func goalsFor(m *domain.Match, teamID int64) (int, int) {
	if m.HomeTeamID == teamID {
		return *m.HomeGoals, *m.AwayGoals
	}
	return *m.AwayGoals, *m.HomeGoals
}

// h2hRates returns home-side win rate, away-side win rate, and average
// total goals over past meetings.
func h2hRates(meetings []*domain.Match, homeID int64) (float64, float64, float64) {
	if len(meetings) == 0 {
		return defaultWinRate, defaultWinRate, 2 * defaultGoalsAvg
	}
	var homeWins, awayWins, goals int
	for _, m := range meetings {
		goals += *m.HomeGoals + *m.AwayGoals
		gf, ga := goalsFor(m, homeID)
		switch {
		case gf > ga:
			homeWins++
		case ga > gf:
			awayWins++
		}
	}
	n := float64(len(meetings))
	return float64(homeWins) / n, float64(awayWins) / n, float64(goals) / n
}

// impliedProbabilities converts 1X2 odds to probabilities, stripping the
// bookmaker overround. Returns NaN triples when odds are absent so the
// processor imputes column means instead of guessing.
func impliedProbabilities(m *domain.Match) (float64, float64, float64) {
	if m.OddsHomeWin == nil || m.OddsDraw == nil || m.OddsAwayWin == nil ||
		*m.OddsHomeWin <= 1 || *m.OddsDraw <= 1 || *m.OddsAwayWin <= 1 {
		nan := math.NaN()
		return nan, nan, nan
	}
	h := 1 / *m.OddsHomeWin
	d := 1 / *m.OddsDraw
	a := 1 / *m.OddsAwayWin
	total := h + d + a
	return h / total, d / total, a / total
}

// restDays returns days since the team's last match, capped.
func restDays(history []*domain.Match, kickoff time.Time) float64 {
	if len(history) == 0 {
		return defaultRestDays
	}
	// history is newest first
	days := kickoff.Sub(history[0].KickoffAt).Hours() / 24
	return math.Min(math.Max(days, 0), maxRestDays)
}
