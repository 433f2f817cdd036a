package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pitchside/predictor/internal/core/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewClientFromAddr(mr.Addr())
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestFormCache_RoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	form := &domain.TeamForm{
		TeamID:         42,
		Last5:          domain.WindowStats{Wins: 3, Draws: 1, Losses: 1, GoalsFor: 9, GoalsAgainst: 4},
		AvgGoalsScored: 1.8,
		FormRating:     66.7,
	}
	if err := c.SetForm(ctx, form, time.Minute); err != nil {
		t.Fatalf("SetForm: %v", err)
	}

	got, err := c.GetForm(ctx, 42)
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	if got.Last5.Wins != 3 || got.FormRating != 66.7 {
		t.Errorf("unexpected form: %+v", got)
	}
}

func TestFormCache_Miss(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetForm(context.Background(), 99)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestFormCache_Expiry(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	form := &domain.TeamForm{TeamID: 7}
	if err := c.SetForm(ctx, form, 30*time.Second); err != nil {
		t.Fatalf("SetForm: %v", err)
	}

	mr.FastForward(time.Minute)

	if _, err := c.GetForm(ctx, 7); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestHeadToHeadCache_OrderIndependent(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	h2h := &domain.HeadToHead{TeamAID: 3, TeamBID: 8, TotalMatches: 6, AWins: 4}
	if err := c.SetHeadToHead(ctx, h2h, time.Minute); err != nil {
		t.Fatalf("SetHeadToHead: %v", err)
	}

	// Reversed team order should hit the same entry.
	got, err := c.GetHeadToHead(ctx, 8, 3)
	if err != nil {
		t.Fatalf("GetHeadToHead: %v", err)
	}
	if got.TotalMatches != 6 || got.AWins != 4 {
		t.Errorf("unexpected h2h: %+v", got)
	}
}

func TestStandingsCache_Invalidate(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	table := []*domain.StandingsRow{
		{TeamID: 1, TeamName: "Arsenal", Played: 10, Points: 24},
		{TeamID: 2, TeamName: "Chelsea", Played: 10, Points: 19},
	}
	if err := c.SetStandings(ctx, 5, table, time.Minute); err != nil {
		t.Fatalf("SetStandings: %v", err)
	}

	got, err := c.GetStandings(ctx, 5)
	if err != nil {
		t.Fatalf("GetStandings: %v", err)
	}
	if len(got) != 2 || got[0].TeamName != "Arsenal" {
		t.Errorf("unexpected standings: %+v", got)
	}

	if err := c.InvalidateStandings(ctx, 5); err != nil {
		t.Fatalf("InvalidateStandings: %v", err)
	}
	if _, err := c.GetStandings(ctx, 5); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}

func TestPredictionCache_RoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	p := &domain.Prediction{
		MatchID:      11,
		ProbHome:     0.5,
		ProbDraw:     0.3,
		ProbAway:     0.2,
		ModelVersion: "ensemble-v1",
	}
	if err := c.SetPrediction(ctx, p, time.Minute); err != nil {
		t.Fatalf("SetPrediction: %v", err)
	}

	got, err := c.GetPrediction(ctx, 11)
	if err != nil {
		t.Fatalf("GetPrediction: %v", err)
	}
	if got.ProbHome != 0.5 || got.ModelVersion != "ensemble-v1" {
		t.Errorf("unexpected prediction: %+v", got)
	}

	if err := c.InvalidatePrediction(ctx, 11); err != nil {
		t.Fatalf("InvalidatePrediction: %v", err)
	}
	if _, err := c.GetPrediction(ctx, 11); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}
