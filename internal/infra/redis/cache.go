package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/metrics"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Key helpers
func formKey(teamID int64) string {
	return fmt.Sprintf("form:%d", teamID)
}

func h2hKey(teamA, teamB int64) string {
	// Order-independent so both lookups hit the same entry.
	if teamA > teamB {
		teamA, teamB = teamB, teamA
	}
	return fmt.Sprintf("h2h:%d:%d", teamA, teamB)
}

func standingsKey(leagueID int64) string {
	return fmt.Sprintf("standings:%d", leagueID)
}

func predictionKey(matchID int64) string {
	return fmt.Sprintf("prediction:%d", matchID)
}

func (c *Client) getJSON(ctx context.Context, cache, key string, dest any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheHits.WithLabelValues(cache, "miss").Inc()
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode cached %s: %w", cache, err)
	}
	metrics.CacheHits.WithLabelValues(cache, "hit").Inc()
	return nil
}

func (c *Client) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// GetForm retrieves a team's cached form, or ErrCacheMiss.
func (c *Client) GetForm(ctx context.Context, teamID int64) (*domain.TeamForm, error) {
	var form domain.TeamForm
	if err := c.getJSON(ctx, "form", formKey(teamID), &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// SetForm caches a team's form.
func (c *Client) SetForm(ctx context.Context, form *domain.TeamForm, ttl time.Duration) error {
	return c.setJSON(ctx, formKey(form.TeamID), form, ttl)
}

// GetHeadToHead retrieves a cached head-to-head record, or ErrCacheMiss.
// The record is stored from the lower team ID's perspective.
func (c *Client) GetHeadToHead(ctx context.Context, teamA, teamB int64) (*domain.HeadToHead, error) {
	var h2h domain.HeadToHead
	if err := c.getJSON(ctx, "h2h", h2hKey(teamA, teamB), &h2h); err != nil {
		return nil, err
	}
	return &h2h, nil
}

// SetHeadToHead caches a head-to-head record.
func (c *Client) SetHeadToHead(ctx context.Context, h2h *domain.HeadToHead, ttl time.Duration) error {
	return c.setJSON(ctx, h2hKey(h2h.TeamAID, h2h.TeamBID), h2h, ttl)
}

// GetStandings retrieves a cached league table, or ErrCacheMiss.
func (c *Client) GetStandings(ctx context.Context, leagueID int64) ([]*domain.StandingsRow, error) {
	var table []*domain.StandingsRow
	if err := c.getJSON(ctx, "standings", standingsKey(leagueID), &table); err != nil {
		return nil, err
	}
	return table, nil
}

// SetStandings caches a league table.
func (c *Client) SetStandings(ctx context.Context, leagueID int64, table []*domain.StandingsRow, ttl time.Duration) error {
	return c.setJSON(ctx, standingsKey(leagueID), table, ttl)
}

// InvalidateStandings drops a cached league table after results change.
func (c *Client) InvalidateStandings(ctx context.Context, leagueID int64) error {
	return c.rdb.Del(ctx, standingsKey(leagueID)).Err()
}

// GetPrediction retrieves a cached match prediction, or ErrCacheMiss.
func (c *Client) GetPrediction(ctx context.Context, matchID int64) (*domain.Prediction, error) {
	var p domain.Prediction
	if err := c.getJSON(ctx, "prediction", predictionKey(matchID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPrediction caches a match prediction.
func (c *Client) SetPrediction(ctx context.Context, p *domain.Prediction, ttl time.Duration) error {
	return c.setJSON(ctx, predictionKey(p.MatchID), p, ttl)
}

// InvalidatePrediction drops a cached prediction, used when odds move.
func (c *Client) InvalidatePrediction(ctx context.Context, matchID int64) error {
	return c.rdb.Del(ctx, predictionKey(matchID)).Err()
}
