package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// InjuryPruner deletes recovered injuries past the retention window.
type InjuryPruner struct {
	cfg      config.JobsConfig
	injuries storage.InjuryRepository
	logger   *slog.Logger
}

// NewInjuryPruner creates a new injury pruner.
func NewInjuryPruner(cfg config.JobsConfig, injuries storage.InjuryRepository, logger *slog.Logger) *InjuryPruner {
	return &InjuryPruner{
		cfg:      cfg,
		injuries: injuries,
		logger:   logger.With("worker", "injury_pruner"),
	}
}

// Start runs the pruner loop.
func (p *InjuryPruner) Start(ctx context.Context) {
	if p.cfg.InjuryRetention <= 0 {
		return // retention disabled
	}

	interval := min(p.cfg.InjuryRetention/10, time.Hour)
	interval = max(interval, time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *InjuryPruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.cfg.InjuryRetention)
	n, err := p.injuries.DeleteRecoveredBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to prune injuries", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("pruned recovered injuries", "count", n)
	}
}
