package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// ErrAlreadySeeded is returned when the target league already exists.
var ErrAlreadySeeded = errors.New("league already seeded")

var clubNames = []string{
	"Arsenal", "Aston Villa", "Bournemouth", "Brentford", "Brighton",
	"Chelsea", "Crystal Palace", "Everton", "Fulham", "Leeds United",
	"Liverpool", "Manchester City", "Manchester United", "Newcastle United",
	"Nottingham Forest", "Southampton", "Tottenham Hotspur", "West Ham United",
	"Wolves", "Leicester City",
}

// Options controls the generated data set.
type Options struct {
	LeagueName     string
	Country        string
	Season         int
	Teams          int
	PlayedFraction float64 // share of the schedule given final scores
	Start          time.Time
	RandSeed       int64
}

func (o *Options) applyDefaults() {
	if o.LeagueName == "" {
		o.LeagueName = "Premier League"
	}
	if o.Country == "" {
		o.Country = "England"
	}
	if o.Season == 0 {
		o.Season = time.Now().Year()
	}
	if o.Teams <= 1 || o.Teams > len(clubNames) {
		o.Teams = 12
	}
	if o.PlayedFraction <= 0 || o.PlayedFraction > 1 {
		o.PlayedFraction = 0.6
	}
	if o.Start.IsZero() {
		o.Start = time.Date(o.Season, time.August, 9, 15, 0, 0, 0, time.UTC)
	}
	if o.RandSeed == 0 {
		o.RandSeed = 2025
	}
}

// Summary reports what Run created.
type Summary struct {
	LeagueID int64
	Teams    int
	Matches  int
	Played   int
	Injuries int
}

// Seeder populates storage with a deterministic sample season.
type Seeder struct {
	leagues  storage.LeagueRepository
	teams    storage.TeamRepository
	matches  storage.MatchRepository
	injuries storage.InjuryRepository
	logger   *slog.Logger
}

func New(
	leagues storage.LeagueRepository,
	teams storage.TeamRepository,
	matches storage.MatchRepository,
	injuries storage.InjuryRepository,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		leagues:  leagues,
		teams:    teams,
		matches:  matches,
		injuries: injuries,
		logger:   logger.With("component", "seeder"),
	}
}

// Run creates a league with a full double round-robin schedule. Matchweeks
// up to PlayedFraction of the season get simulated results; the rest stay
// scheduled in the future.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	opts.applyDefaults()

	if _, err := s.leagues.GetByName(ctx, opts.LeagueName); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySeeded, opts.LeagueName)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check league: %w", err)
	}

	league := &domain.League{
		Name:        opts.LeagueName,
		Country:     opts.Country,
		Season:      opts.Season,
		Description: "Seeded sample season",
	}
	if err := s.leagues.Create(ctx, league); err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.RandSeed))

	// Strengths descend with index so the generated table is predictable.
	teams := make([]*domain.Team, opts.Teams)
	strengths := make([]float64, opts.Teams)
	for i := 0; i < opts.Teams; i++ {
		strengths[i] = domain.DefaultRating + float64(opts.Teams-i)*25
		teams[i] = &domain.Team{
			LeagueID:      league.ID,
			Name:          clubNames[i],
			Country:       opts.Country,
			HomeAdvantage: 0.2,
			Rating:        strengths[i],
		}
		if err := s.teams.Create(ctx, teams[i]); err != nil {
			return nil, fmt.Errorf("failed to create team %s: %w", clubNames[i], err)
		}
	}

	rounds := Schedule(opts.Teams)
	playedRounds := int(math.Round(float64(len(rounds)) * opts.PlayedFraction))

	summary := &Summary{LeagueID: league.ID, Teams: opts.Teams}
	kickoff := opts.Start
	for week, round := range rounds {
		for slot, pairing := range round {
			home, away := teams[pairing.Home], teams[pairing.Away]
			match := &domain.Match{
				LeagueID:   league.ID,
				HomeTeamID: home.ID,
				AwayTeamID: away.ID,
				KickoffAt:  kickoff.Add(time.Duration(slot) * 2 * time.Hour),
				Matchweek:  week + 1,
				Status:     domain.MatchScheduled,
				Venue:      home.Name + " Stadium",
			}
			if week < playedRounds {
				hg, ag := simulateScore(rng, strengths[pairing.Home], strengths[pairing.Away])
				match.HomeGoals, match.AwayGoals = &hg, &ag
				match.Status = domain.MatchFinished
				summary.Played++
			}
			if err := s.matches.Create(ctx, match); err != nil {
				return nil, fmt.Errorf("failed to create match: %w", err)
			}
			summary.Matches++
		}
		kickoff = kickoff.AddDate(0, 0, 7)
	}

	// A couple of current injuries so feature vectors have signal.
	for i := 0; i < opts.Teams/4; i++ {
		ret := time.Now().AddDate(0, 0, 14+i*7)
		injury := &domain.Injury{
			TeamID:         teams[i*2].ID,
			PlayerName:     fmt.Sprintf("Player %c", 'A'+i),
			Position:       "MF",
			Severity:       domain.SeverityModerate,
			Status:         domain.InjuryActive,
			InjuryDate:     time.Now().AddDate(0, 0, -3),
			ExpectedReturn: &ret,
			ImpactScore:    5,
		}
		if err := s.injuries.Create(ctx, injury); err != nil {
			return nil, fmt.Errorf("failed to create injury: %w", err)
		}
		summary.Injuries++
	}

	s.logger.Info("seed complete",
		"league", league.Name,
		"teams", summary.Teams,
		"matches", summary.Matches,
		"played", summary.Played)
	return summary, nil
}

// Pairing is one fixture slot in a round, by team index.
type Pairing struct {
	Home int
	Away int
}

// Schedule builds a double round-robin schedule with the circle method.
// The second half of the season mirrors the first with venues swapped.
// Odd team counts get a bye (pairings against the ghost index are dropped).
func Schedule(n int) [][]Pairing {
	teams := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		teams = append(teams, i)
	}
	ghost := -1
	if n%2 != 0 {
		teams = append(teams, ghost)
	}
	size := len(teams)

	var firstHalf [][]Pairing
	for round := 0; round < size-1; round++ {
		var pairings []Pairing
		for i := 0; i < size/2; i++ {
			a, b := teams[i], teams[size-1-i]
			if a == ghost || b == ghost {
				continue
			}
			// Alternate venue for the fixed team so home games spread out.
			if round%2 == 0 {
				pairings = append(pairings, Pairing{Home: a, Away: b})
			} else {
				pairings = append(pairings, Pairing{Home: b, Away: a})
			}
		}
		firstHalf = append(firstHalf, pairings)

		// Rotate all but the first element.
		last := teams[size-1]
		copy(teams[2:], teams[1:size-1])
		teams[1] = last
	}

	schedule := firstHalf
	for _, round := range firstHalf {
		mirrored := make([]Pairing, len(round))
		for i, p := range round {
			mirrored[i] = Pairing{Home: p.Away, Away: p.Home}
		}
		schedule = append(schedule, mirrored)
	}
	return schedule
}

// simulateScore draws goals from Poisson rates derived from the strength gap.
func simulateScore(rng *rand.Rand, homeStrength, awayStrength float64) (int, int) {
	gap := (homeStrength - awayStrength) / 400
	homeRate := math.Max(0.2, 1.45+gap)
	awayRate := math.Max(0.2, 1.15-gap)
	return poissonDraw(rng, homeRate), poissonDraw(rng, awayRate)
}

// poissonDraw samples with Knuth's multiplication method.
func poissonDraw(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
		if k > 12 {
			return k
		}
	}
}
