package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Fixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/39/matches" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "test-key" {
			t.Errorf("unexpected auth token: %q", got)
		}
		if got := r.URL.Query().Get("dateFrom"); got != "2026-08-01" {
			t.Errorf("unexpected dateFrom: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"matches":[
			{"id":1001,"home_team":"Arsenal","away_team":"Chelsea",
			 "utc_date":"2026-08-15T15:00:00Z","matchday":1,"status":"FINISHED",
			 "home_goals":2,"away_goals":1}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second})

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fixtures, err := c.Fixtures(context.Background(), 39, from, time.Time{})
	if err != nil {
		t.Fatalf("Fixtures: %v", err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("expected 1 fixture, got %d", len(fixtures))
	}
	f := fixtures[0]
	if f.HomeTeam != "Arsenal" || f.Status != "FINISHED" {
		t.Errorf("unexpected fixture: %+v", f)
	}
	if f.HomeGoals == nil || *f.HomeGoals != 2 {
		t.Errorf("unexpected home goals: %v", f.HomeGoals)
	}
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})

	_, err := c.Competitions(context.Background())
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 30*time.Second {
		t.Errorf("expected 30s retry-after, got %s", rl.RetryAfter)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})

	if _, err := c.Teams(context.Background(), 39); err == nil {
		t.Fatal("expected error on 502")
	}
}
