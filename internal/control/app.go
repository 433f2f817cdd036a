package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pitchside/predictor/internal/api"
	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/worker"
	"github.com/pitchside/predictor/internal/infra/feed"
	redisclient "github.com/pitchside/predictor/internal/infra/redis"
	"github.com/pitchside/predictor/internal/infra/storage"
	"github.com/pitchside/predictor/internal/infra/storage/memory"
	"github.com/pitchside/predictor/internal/infra/storage/postgres"
	"github.com/pitchside/predictor/internal/ml"
)

// App wires storage, the feed, the prediction ensemble, background workers,
// and the HTTP API into one process.
type App struct {
	cfg    config.AppConfig
	server *api.Server
	db     *postgres.DB
	redis  *redisclient.Client
	log    *slog.Logger

	trainer *ml.Trainer
	sync    *worker.FixtureSync
	odds    *worker.OddsWorker
	form    *worker.FormWorker
	settle  *worker.SettleWorker
	pruner  *worker.InjuryPruner
}

// NewApp creates the application with all dependencies initialized. Postgres
// and Redis are optional: without a database URL the app runs on in-memory
// storage, without Redis caching is disabled.
func NewApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	var (
		leagues     storage.LeagueRepository
		teams       storage.TeamRepository
		matches     storage.MatchRepository
		injuries    storage.InjuryRepository
		predictions storage.PredictionRepository
		users       storage.UserRepository
		picks       storage.PickRepository
		db          *postgres.DB
	)

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
		leagues = postgres.NewLeagueRepo(db)
		teams = postgres.NewTeamRepo(db)
		matches = postgres.NewMatchRepo(db)
		injuries = postgres.NewInjuryRepo(db)
		predictions = postgres.NewPredictionRepo(db)
		users = postgres.NewUserRepo(db)
		picks = postgres.NewPickRepo(db)
		logger.Info("using postgres storage")
	} else {
		store := memory.NewMemoryStorage()
		leagues = memory.NewLeagueRepo(store)
		teams = memory.NewTeamRepo(store)
		matches = memory.NewMatchRepo(store)
		injuries = memory.NewInjuryRepo(store)
		predictions = memory.NewPredictionRepo(store)
		users = memory.NewUserRepo(store)
		picks = memory.NewPickRepo(store)
		logger.Info("using in-memory storage")
	}

	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			logger.Warn("failed to connect to redis, caching disabled", "error", err)
			redisClient = nil
		}
	}
	// worker.Cache is an interface; pass nil, not a typed nil pointer.
	var workerCache worker.Cache
	if redisClient != nil {
		workerCache = redisClient
	}

	fe := ml.NewFeatureEngineer(matches, teams, injuries,
		cfg.ML.FormWindow, cfg.ML.H2HWindow, cfg.ML.InjuryWindow)
	trainer := ml.NewTrainer(matches, teams, fe, cfg.ML, logger)

	var provider feed.Provider
	if cfg.Feed.APIKey != "" {
		provider = feed.NewClient(cfg.Feed)
	}

	app := &App{
		cfg:     cfg,
		db:      db,
		redis:   redisClient,
		log:     logger,
		trainer: trainer,
		form: worker.NewFormWorker(cfg.Jobs, cfg.ML.CacheTTL,
			leagues, teams, matches, workerCache, logger),
		settle: worker.NewSettleWorker(cfg.Jobs,
			matches, teams, predictions, picks, users, workerCache, logger),
		pruner: worker.NewInjuryPruner(cfg.Jobs, injuries, logger),
	}
	if provider != nil {
		app.sync = worker.NewFixtureSync(cfg.Jobs, provider, leagues, teams, matches, injuries, logger)
		app.odds = worker.NewOddsWorker(cfg.Jobs, provider, leagues, teams, matches, workerCache, logger)
	} else {
		logger.Info("no feed api key configured, fixture sync disabled")
	}

	deps := api.Deps{
		Leagues:     leagues,
		Teams:       teams,
		Matches:     matches,
		Injuries:    injuries,
		Predictions: predictions,
		Users:       users,
		Picks:       picks,
		Trainer:     trainer,
		Form:        app.form,
		Cache:       redisClient,
	}
	if db != nil {
		deps.DBHealth = db.Health
	}
	app.server = api.NewServer(cfg.Server, cfg.Auth, cfg.ML, deps, logger)

	return app, nil
}

// Start launches the API server and background workers. It returns
// immediately; the workers stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("api server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	if a.sync != nil {
		go a.sync.Start(ctx)
	}
	if a.odds != nil {
		go a.odds.Start(ctx)
	}
	go a.form.Start(ctx)
	go a.settle.Start(ctx)
	go a.pruner.Start(ctx)

	// Train on whatever history is already stored so predictions are
	// available without a manual /ml/train call.
	go func() {
		if _, err := a.trainer.Train(ctx); err != nil {
			a.log.Warn("initial training skipped", "error", err)
		}
	}()

	return nil
}

// Stop shuts the application down gracefully.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping application")

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		defer a.db.Close()
	}
	return a.server.Stop(ctx)
}
