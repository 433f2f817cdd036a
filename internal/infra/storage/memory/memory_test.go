package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

func finishedMatch(leagueID, homeID, awayID int64, hg, ag int, kickoff time.Time) *domain.Match {
	return &domain.Match{
		LeagueID:   leagueID,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		KickoffAt:  kickoff,
		Status:     domain.MatchFinished,
		HomeGoals:  &hg,
		AwayGoals:  &ag,
	}
}

func TestLeagueRepo_DuplicateAndCascade(t *testing.T) {
	store := NewMemoryStorage()
	leagues := NewLeagueRepo(store)
	teams := NewTeamRepo(store)
	matches := NewMatchRepo(store)
	ctx := context.Background()

	league := &domain.League{Name: "Serie A", Country: "Italy", Season: 2025}
	if err := leagues.Create(ctx, league); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := leagues.Create(ctx, &domain.League{Name: "serie a", Season: 2025}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("case-insensitive duplicate: got %v, want ErrDuplicate", err)
	}

	home := &domain.Team{LeagueID: league.ID, Name: "Juventus"}
	away := &domain.Team{LeagueID: league.ID, Name: "Inter"}
	for _, team := range []*domain.Team{home, away} {
		if err := teams.Create(ctx, team); err != nil {
			t.Fatalf("create team: %v", err)
		}
	}
	if err := matches.Create(ctx, finishedMatch(league.ID, home.ID, away.ID, 1, 0, time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("create match: %v", err)
	}

	if err := leagues.Delete(ctx, league.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := teams.GetByID(ctx, home.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("team survived league delete: %v", err)
	}
	if _, total, err := matches.List(ctx, domain.MatchFilter{LeagueID: league.ID}); err != nil || total != 0 {
		t.Errorf("matches survived league delete: total=%d err=%v", total, err)
	}
}

func TestLeagueRepo_StandingsTieBreaks(t *testing.T) {
	store := NewMemoryStorage()
	leagues := NewLeagueRepo(store)
	teams := NewTeamRepo(store)
	matches := NewMatchRepo(store)
	ctx := context.Background()

	league := &domain.League{Name: "La Liga", Season: 2025}
	if err := leagues.Create(ctx, league); err != nil {
		t.Fatalf("create league: %v", err)
	}
	a := &domain.Team{LeagueID: league.ID, Name: "Athletic"}
	b := &domain.Team{LeagueID: league.ID, Name: "Betis"}
	c := &domain.Team{LeagueID: league.ID, Name: "Celta"}
	for _, team := range []*domain.Team{a, b, c} {
		if err := teams.Create(ctx, team); err != nil {
			t.Fatalf("create team: %v", err)
		}
	}

	// a and b both beat c once, but a by the wider margin.
	when := time.Now().Add(-48 * time.Hour)
	for _, m := range []*domain.Match{
		finishedMatch(league.ID, a.ID, c.ID, 3, 0, when),
		finishedMatch(league.ID, b.ID, c.ID, 1, 0, when.Add(time.Hour)),
	} {
		if err := matches.Create(ctx, m); err != nil {
			t.Fatalf("create match: %v", err)
		}
	}

	table, err := leagues.Standings(ctx, league.ID)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("rows = %d, want 3", len(table))
	}
	if table[0].TeamName != "Athletic" || table[1].TeamName != "Betis" {
		t.Errorf("goal difference tie-break wrong: %s, %s", table[0].TeamName, table[1].TeamName)
	}
	if table[2].TeamName != "Celta" || table[2].Points != 0 || table[2].Played != 2 {
		t.Errorf("bottom row wrong: %+v", table[2])
	}

	if _, err := leagues.Standings(ctx, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("standings for missing league: got %v, want ErrNotFound", err)
	}
}

func TestInjuryRepo_CountActive(t *testing.T) {
	store := NewMemoryStorage()
	injuries := NewInjuryRepo(store)
	ctx := context.Background()
	now := time.Now()

	ret := now.Add(7 * 24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	for _, inj := range []*domain.Injury{
		{TeamID: 1, PlayerName: "Out Long", Status: domain.InjuryActive, InjuryDate: now.Add(-72 * time.Hour)},
		{TeamID: 1, PlayerName: "Back Soon", Status: domain.InjuryDoubtful, InjuryDate: now.Add(-48 * time.Hour), ExpectedReturn: &ret},
		{TeamID: 1, PlayerName: "Already Back", Status: domain.InjuryActive, InjuryDate: now.Add(-200 * time.Hour), ExpectedReturn: &past},
		{TeamID: 1, PlayerName: "Healed", Status: domain.InjuryRecovered, InjuryDate: now.Add(-400 * time.Hour)},
		{TeamID: 1, PlayerName: "Forgotten Knee", Status: domain.InjuryActive, InjuryDate: now.Add(-2 * 365 * 24 * time.Hour)},
		{TeamID: 2, PlayerName: "Other Club", Status: domain.InjuryActive, InjuryDate: now.Add(-24 * time.Hour)},
	} {
		if err := injuries.Create(ctx, inj); err != nil {
			t.Fatalf("create injury: %v", err)
		}
	}

	// Zero lower bound: everything unresolved counts, stale or not.
	count, err := injuries.CountActive(ctx, 1, time.Time{}, now)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("active = %d, want 3 (no recovered, no returned, no other team)", count)
	}

	// A 14-day lookback drops the years-old report with no return date.
	count, err = injuries.CountActive(ctx, 1, now.Add(-14*24*time.Hour), now)
	if err != nil {
		t.Fatalf("count with lookback: %v", err)
	}
	if count != 2 {
		t.Errorf("active within window = %d, want 2 (stale report excluded)", count)
	}
}

func TestMatchRepo_DeleteCascades(t *testing.T) {
	store := NewMemoryStorage()
	matches := NewMatchRepo(store)
	predictions := NewPredictionRepo(store)
	picks := NewPickRepo(store)
	ctx := context.Background()

	m := finishedMatch(1, 10, 11, 2, 1, time.Now().Add(-time.Hour))
	if err := matches.Create(ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := predictions.Create(ctx, &domain.Prediction{
		MatchID: m.ID, ProbHome: 0.5, ProbDraw: 0.3, ProbAway: 0.2, ModelVersion: "v1",
	}); err != nil {
		t.Fatalf("create prediction: %v", err)
	}
	if err := picks.Create(ctx, &domain.Pick{
		UserID: 1, MatchID: m.ID, Prediction: domain.OutcomeHomeWin, Confidence: 70,
	}); err != nil {
		t.Fatalf("create pick: %v", err)
	}

	if err := matches.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete match: %v", err)
	}

	if _, err := predictions.GetLatestByMatch(ctx, m.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("prediction survived match delete: %v", err)
	}
	if scored, _, err := predictions.Accuracy(ctx, "v1"); err != nil || scored != 0 {
		t.Errorf("accuracy still counts deleted match: scored=%d err=%v", scored, err)
	}
	remaining, err := picks.ListByUser(ctx, 1, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("picks survived match delete: %d left", len(remaining))
	}
}

func TestPredictionRepo_LatestScoreAccuracy(t *testing.T) {
	store := NewMemoryStorage()
	matches := NewMatchRepo(store)
	predictions := NewPredictionRepo(store)
	ctx := context.Background()

	m := finishedMatch(1, 10, 11, 2, 1, time.Now().Add(-time.Hour))
	if err := matches.Create(ctx, m); err != nil {
		t.Fatalf("create match: %v", err)
	}

	first := &domain.Prediction{MatchID: m.ID, ProbHome: 0.5, ProbDraw: 0.3, ProbAway: 0.2, ModelVersion: "v1"}
	second := &domain.Prediction{MatchID: m.ID, ProbHome: 0.6, ProbDraw: 0.25, ProbAway: 0.15, ModelVersion: "v1"}
	for _, p := range []*domain.Prediction{first, second} {
		if err := predictions.Create(ctx, p); err != nil {
			t.Fatalf("create prediction: %v", err)
		}
	}
	if first.Outcome != domain.OutcomeHomeWin {
		t.Errorf("outcome defaulted to %q, want home_win", first.Outcome)
	}

	latest, err := predictions.GetLatestByMatch(ctx, m.ID)
	if err != nil || latest.ID != second.ID {
		t.Fatalf("latest = %v (err %v), want id %d", latest, err, second.ID)
	}

	unscored, err := predictions.ListUnscored(ctx)
	if err != nil || len(unscored) != 2 {
		t.Fatalf("unscored = %d (err %v), want 2", len(unscored), err)
	}

	if err := predictions.Score(ctx, first.ID, true); err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := predictions.Score(ctx, second.ID, false); err != nil {
		t.Fatalf("score: %v", err)
	}

	scored, correct, err := predictions.Accuracy(ctx, "v1")
	if err != nil || scored != 2 || correct != 1 {
		t.Errorf("accuracy = %d/%d (err %v), want 1/2", correct, scored, err)
	}
	if unscored, _ := predictions.ListUnscored(ctx); len(unscored) != 0 {
		t.Errorf("unscored after scoring = %d, want 0", len(unscored))
	}
}

func TestUserRepo_ProfileDefaults(t *testing.T) {
	store := NewMemoryStorage()
	users := NewUserRepo(store)
	ctx := context.Background()

	user := &domain.User{Username: "dana", Email: "dana@example.com", PasswordHash: "x"}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !user.IsActive {
		t.Error("new user not active")
	}

	profile, err := users.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.UserID != user.ID || profile.TotalPredictions != 0 {
		t.Errorf("default profile wrong: %+v", profile)
	}

	profile.TotalPredictions = 3
	profile.CorrectPredictions = 2
	if err := users.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	saved, _ := users.GetProfile(ctx, user.ID)
	if saved.CorrectPredictions != 2 {
		t.Errorf("profile not persisted: %+v", saved)
	}

	if err := users.Create(ctx, &domain.User{Username: "DANA", Email: "other@example.com"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate username: got %v, want ErrDuplicate", err)
	}
}

func TestPickRepo_PendingAndPagination(t *testing.T) {
	store := NewMemoryStorage()
	picks := NewPickRepo(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pick := &domain.Pick{UserID: 1, MatchID: 100, Prediction: domain.OutcomeDraw, Confidence: 50}
		if err := picks.Create(ctx, pick); err != nil {
			t.Fatalf("create pick: %v", err)
		}
	}
	settled := &domain.Pick{UserID: 1, MatchID: 100, Prediction: domain.OutcomeDraw, Confidence: 50}
	if err := picks.Create(ctx, settled); err != nil {
		t.Fatalf("create pick: %v", err)
	}
	settled.Settle(domain.OutcomeHomeWin, time.Now())
	if err := picks.Update(ctx, settled); err != nil {
		t.Fatalf("update pick: %v", err)
	}

	pending, err := picks.ListPendingByMatch(ctx, 100)
	if err != nil || len(pending) != 3 {
		t.Fatalf("pending = %d (err %v), want 3", len(pending), err)
	}

	page, err := picks.ListByUser(ctx, 1, 2, 0)
	if err != nil || len(page) != 2 {
		t.Fatalf("page = %d (err %v), want 2", len(page), err)
	}
	rest, err := picks.ListByUser(ctx, 1, 2, 2)
	if err != nil || len(rest) != 2 {
		t.Fatalf("second page = %d (err %v), want 2", len(rest), err)
	}
	if empty, _ := picks.ListByUser(ctx, 1, 2, 10); len(empty) != 0 {
		t.Errorf("offset past end = %d picks, want 0", len(empty))
	}
}
