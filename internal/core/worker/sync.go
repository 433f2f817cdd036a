package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/feed"
	"github.com/pitchside/predictor/internal/infra/storage"
)

const (
	syncLookback = 7 * 24 * time.Hour
	syncHorizon  = 30 * 24 * time.Hour
)

// FixtureSync pulls competitions, teams, fixtures, and injury reports from
// the feed and upserts them into storage.
type FixtureSync struct {
	cfg      config.JobsConfig
	feed     feed.Provider
	leagues  storage.LeagueRepository
	teams    storage.TeamRepository
	matches  storage.MatchRepository
	injuries storage.InjuryRepository
	logger   *slog.Logger
}

// NewFixtureSync creates a new fixture sync worker.
func NewFixtureSync(
	cfg config.JobsConfig,
	provider feed.Provider,
	leagues storage.LeagueRepository,
	teams storage.TeamRepository,
	matches storage.MatchRepository,
	injuries storage.InjuryRepository,
	logger *slog.Logger,
) *FixtureSync {
	return &FixtureSync{
		cfg:      cfg,
		feed:     provider,
		leagues:  leagues,
		teams:    teams,
		matches:  matches,
		injuries: injuries,
		logger:   logger.With("worker", "fixture_sync"),
	}
}

// Start runs the sync loop.
func (w *FixtureSync) Start(ctx context.Context) {
	if w.cfg.FixtureSyncInterval <= 0 {
		return
	}
	ticker := time.NewTicker(w.cfg.FixtureSyncInterval)
	defer ticker.Stop()

	w.syncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

func (w *FixtureSync) syncAll(ctx context.Context) {
	competitions, err := w.feed.Competitions(ctx)
	if err != nil {
		w.logFeedError("failed to list competitions", err)
		return
	}

	for _, comp := range competitions {
		if err := w.syncCompetition(ctx, comp); err != nil {
			var rl *feed.RateLimitError
			if errors.As(err, &rl) {
				w.logger.Warn("feed rate limited, stopping cycle", "retry_after", rl.RetryAfter)
				return
			}
			w.logger.Error("competition sync failed", "competition", comp.Name, "error", err)
		}
	}
}

func (w *FixtureSync) syncCompetition(ctx context.Context, comp feed.Competition) error {
	league, err := w.upsertLeague(ctx, comp)
	if err != nil {
		return err
	}

	squads, err := w.feed.Teams(ctx, comp.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}
	byName := make(map[string]*domain.Team, len(squads))
	for _, squad := range squads {
		team, err := w.upsertTeam(ctx, league.ID, squad)
		if err != nil {
			return err
		}
		byName[strings.ToLower(team.Name)] = team
	}

	now := time.Now()
	fixtures, err := w.feed.Fixtures(ctx, comp.ExternalID, now.Add(-syncLookback), now.Add(syncHorizon))
	if err != nil {
		return fmt.Errorf("failed to list fixtures: %w", err)
	}

	existing, err := w.matchIndex(ctx, league.ID)
	if err != nil {
		return err
	}

	var created, updated int
	for _, fixture := range fixtures {
		home := byName[strings.ToLower(fixture.HomeTeam)]
		away := byName[strings.ToLower(fixture.AwayTeam)]
		if home == nil || away == nil {
			w.logger.Warn("fixture references unknown team",
				"home", fixture.HomeTeam, "away", fixture.AwayTeam)
			continue
		}
		if home.ID == away.ID {
			continue
		}

		key := matchKey(home.ID, away.ID, fixture.KickoffAt)
		if match, ok := existing[key]; ok {
			if applyFixture(match, fixture) {
				if err := w.matches.Update(ctx, match); err != nil {
					return fmt.Errorf("failed to update match %d: %w", match.ID, err)
				}
				updated++
			}
			continue
		}

		match := &domain.Match{
			LeagueID:   league.ID,
			HomeTeamID: home.ID,
			AwayTeamID: away.ID,
			KickoffAt:  fixture.KickoffAt,
			Matchweek:  fixture.Matchweek,
			Status:     statusFromFeed(fixture.Status),
			HomeGoals:  fixture.HomeGoals,
			AwayGoals:  fixture.AwayGoals,
			Venue:      fixture.Venue,
			Referee:    fixture.Referee,
		}
		if err := w.matches.Create(ctx, match); err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		created++
	}

	if created > 0 || updated > 0 {
		w.logger.Info("fixtures synced", "league", league.Name, "created", created, "updated", updated)
	}

	return w.syncInjuries(ctx, comp, byName)
}

// syncInjuries reconciles feed injury reports against stored injuries per
// team. A sidelined player missing from the feed is marked recovered.
func (w *FixtureSync) syncInjuries(ctx context.Context, comp feed.Competition, byName map[string]*domain.Team) error {
	reports, err := w.feed.Injuries(ctx, comp.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to list injuries: %w", err)
	}

	sidelined := make(map[int64]map[string]bool)
	for _, report := range reports {
		team := byName[strings.ToLower(report.Team)]
		if team == nil {
			w.logger.Warn("injury references unknown team", "team", report.Team, "player", report.PlayerName)
			continue
		}
		if sidelined[team.ID] == nil {
			sidelined[team.ID] = make(map[string]bool)
		}
		sidelined[team.ID][strings.ToLower(report.PlayerName)] = true

		if err := w.upsertInjury(ctx, team.ID, report); err != nil {
			return err
		}
	}

	for _, team := range byName {
		stored, err := w.injuries.ListByTeam(ctx, team.ID)
		if err != nil {
			return fmt.Errorf("failed to list stored injuries: %w", err)
		}
		for _, injury := range stored {
			if injury.Status == domain.InjuryRecovered {
				continue
			}
			if sidelined[team.ID][strings.ToLower(injury.PlayerName)] {
				continue
			}
			injury.Status = domain.InjuryRecovered
			if err := w.injuries.Update(ctx, injury); err != nil {
				return fmt.Errorf("failed to mark injury recovered: %w", err)
			}
		}
	}
	return nil
}

func (w *FixtureSync) upsertInjury(ctx context.Context, teamID int64, report feed.PlayerInjury) error {
	stored, err := w.injuries.ListByTeam(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list stored injuries: %w", err)
	}

	severity := severityFromFeed(report.Severity)
	for _, injury := range stored {
		if injury.Status == domain.InjuryRecovered {
			continue
		}
		if !strings.EqualFold(injury.PlayerName, report.PlayerName) {
			continue
		}
		changed := false
		if injury.Severity != severity {
			injury.Severity = severity
			injury.ImpactScore = impactScore(severity)
			changed = true
		}
		if !equalTimes(injury.ExpectedReturn, report.ExpectedReturn) {
			injury.ExpectedReturn = report.ExpectedReturn
			changed = true
		}
		if changed {
			if err := w.injuries.Update(ctx, injury); err != nil {
				return fmt.Errorf("failed to update injury: %w", err)
			}
		}
		return nil
	}

	injury := &domain.Injury{
		TeamID:         teamID,
		PlayerName:     report.PlayerName,
		Position:       report.Position,
		Severity:       severity,
		Status:         domain.InjuryActive,
		InjuryDate:     report.InjuryDate,
		ExpectedReturn: report.ExpectedReturn,
		ImpactScore:    impactScore(severity),
	}
	if injury.InjuryDate.IsZero() {
		injury.InjuryDate = time.Now()
	}
	if err := w.injuries.Create(ctx, injury); err != nil {
		return fmt.Errorf("failed to create injury: %w", err)
	}
	return nil
}

func severityFromFeed(s string) domain.InjurySeverity {
	switch strings.ToLower(s) {
	case "severe", "major":
		return domain.SeveritySevere
	case "moderate":
		return domain.SeverityModerate
	default:
		return domain.SeverityMinor
	}
}

// impactScore grades an injury's effect on team strength on a 1-10 scale.
func impactScore(severity domain.InjurySeverity) int {
	switch severity {
	case domain.SeveritySevere:
		return 8
	case domain.SeverityModerate:
		return 5
	default:
		return 2
	}
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (w *FixtureSync) upsertLeague(ctx context.Context, comp feed.Competition) (*domain.League, error) {
	league, err := w.leagues.GetByName(ctx, comp.Name)
	if err == nil {
		return league, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up league: %w", err)
	}

	league = &domain.League{
		Name:    comp.Name,
		Country: comp.Country,
		Season:  comp.Season,
	}
	if err := w.leagues.Create(ctx, league); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	w.logger.Info("league registered", "league", league.Name, "season", league.Season)
	return league, nil
}

func (w *FixtureSync) upsertTeam(ctx context.Context, leagueID int64, squad feed.Squad) (*domain.Team, error) {
	team, err := w.teams.GetByName(ctx, leagueID, squad.Name)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up team: %w", err)
	}

	team = &domain.Team{
		LeagueID:    leagueID,
		Name:        squad.Name,
		Country:     squad.Country,
		City:        squad.City,
		Stadium:     squad.Stadium,
		FoundedYear: squad.Founded,
	}
	if err := w.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// matchIndex loads the league's matches keyed by teams and kickoff day.
func (w *FixtureSync) matchIndex(ctx context.Context, leagueID int64) (map[string]*domain.Match, error) {
	matches, _, err := w.matches.List(ctx, domain.MatchFilter{LeagueID: leagueID})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	index := make(map[string]*domain.Match, len(matches))
	for _, m := range matches {
		index[matchKey(m.HomeTeamID, m.AwayTeamID, m.KickoffAt)] = m
	}
	return index, nil
}

func matchKey(homeID, awayID int64, kickoff time.Time) string {
	return fmt.Sprintf("%d:%d:%s", homeID, awayID, kickoff.UTC().Format("2006-01-02"))
}

// applyFixture copies feed state onto a stored match, reporting whether
// anything changed.
func applyFixture(match *domain.Match, fixture feed.Fixture) bool {
	changed := false
	if status := statusFromFeed(fixture.Status); status != match.Status {
		match.Status = status
		changed = true
	}
	if fixture.HomeGoals != nil && !equalGoals(match.HomeGoals, fixture.HomeGoals) {
		match.HomeGoals = fixture.HomeGoals
		changed = true
	}
	if fixture.AwayGoals != nil && !equalGoals(match.AwayGoals, fixture.AwayGoals) {
		match.AwayGoals = fixture.AwayGoals
		changed = true
	}
	if !fixture.KickoffAt.IsZero() && !fixture.KickoffAt.Equal(match.KickoffAt) {
		match.KickoffAt = fixture.KickoffAt
		changed = true
	}
	return changed
}

func equalGoals(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func statusFromFeed(s string) domain.MatchStatus {
	switch strings.ToUpper(s) {
	case "FINISHED":
		return domain.MatchFinished
	case "IN_PLAY", "PAUSED", "LIVE":
		return domain.MatchLive
	case "POSTPONED", "SUSPENDED", "CANCELLED":
		return domain.MatchPostponed
	default:
		return domain.MatchScheduled
	}
}

func (w *FixtureSync) logFeedError(msg string, err error) {
	var rl *feed.RateLimitError
	if errors.As(err, &rl) {
		w.logger.Warn("feed rate limited", "retry_after", rl.RetryAfter)
		return
	}
	w.logger.Error(msg, "error", err)
}
