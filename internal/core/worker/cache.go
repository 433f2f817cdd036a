package worker

import (
	"context"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
)

// Cache is the subset of the Redis client the workers write through to.
// A nil Cache disables caching.
type Cache interface {
	SetForm(ctx context.Context, form *domain.TeamForm, ttl time.Duration) error
	SetHeadToHead(ctx context.Context, h2h *domain.HeadToHead, ttl time.Duration) error
	SetStandings(ctx context.Context, leagueID int64, table []*domain.StandingsRow, ttl time.Duration) error
	InvalidateStandings(ctx context.Context, leagueID int64) error
	InvalidatePrediction(ctx context.Context, matchID int64) error
}
