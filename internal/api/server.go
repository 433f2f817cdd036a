package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/worker"
	redisclient "github.com/pitchside/predictor/internal/infra/redis"
	"github.com/pitchside/predictor/internal/infra/storage"
	"github.com/pitchside/predictor/internal/ml"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Leagues     storage.LeagueRepository
	Teams       storage.TeamRepository
	Matches     storage.MatchRepository
	Injuries    storage.InjuryRepository
	Predictions storage.PredictionRepository
	Users       storage.UserRepository
	Picks       storage.PickRepository

	Trainer *ml.Trainer
	Form    *worker.FormWorker
	Cache   *redisclient.Client // nil disables caching

	// DBHealth reports database connectivity for the detailed health check.
	// Nil means the service runs on in-memory storage.
	DBHealth func(ctx context.Context) error
}

// Server exposes the REST API, health checks and Prometheus metrics.
type Server struct {
	server *http.Server
	router *mux.Router
	logger *slog.Logger

	auth config.AuthConfig
	ml   config.MLConfig
	deps Deps

	started time.Time
}

func NewServer(cfg config.ServerConfig, auth config.AuthConfig, mlCfg config.MLConfig, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		auth:    auth,
		ml:      mlCfg,
		deps:    deps,
		started: time.Now(),
	}
	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/health/detailed", s.handleHealthDetailed).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.requestIDMiddleware, s.loggingMiddleware)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	api.HandleFunc("/leagues", s.handleListLeagues).Methods(http.MethodGet)
	api.HandleFunc("/leagues", s.handleCreateLeague).Methods(http.MethodPost)
	api.HandleFunc("/leagues/{id:[0-9]+}", s.handleGetLeague).Methods(http.MethodGet)
	api.HandleFunc("/leagues/{id:[0-9]+}", s.handleUpdateLeague).Methods(http.MethodPut)
	api.HandleFunc("/leagues/{id:[0-9]+}", s.handleDeleteLeague).Methods(http.MethodDelete)
	api.HandleFunc("/leagues/{id:[0-9]+}/standings", s.handleStandings).Methods(http.MethodGet)
	api.HandleFunc("/leagues/{id:[0-9]+}/teams", s.handleListTeams).Methods(http.MethodGet)

	api.HandleFunc("/teams", s.handleCreateTeam).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id:[0-9]+}", s.handleGetTeam).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id:[0-9]+}", s.handleUpdateTeam).Methods(http.MethodPut)

	api.HandleFunc("/matches", s.handleListMatches).Methods(http.MethodGet)
	api.HandleFunc("/matches", s.handleCreateMatch).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id:[0-9]+}", s.handleGetMatch).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id:[0-9]+}", s.handleDeleteMatch).Methods(http.MethodDelete)
	api.HandleFunc("/matches/{id:[0-9]+}/result", s.handleMatchResult).Methods(http.MethodPut)
	api.HandleFunc("/matches/{id:[0-9]+}/prediction", s.handleGetPrediction).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id:[0-9]+}/predict", s.handlePredict).Methods(http.MethodPost)

	api.HandleFunc("/predictions/accuracy", s.handleAccuracy).Methods(http.MethodGet)

	api.HandleFunc("/ml/train", s.handleTrain).Methods(http.MethodPost)
	api.HandleFunc("/ml/status", s.handleMLStatus).Methods(http.MethodGet)
	api.HandleFunc("/ml/features/top", s.handleTopFeatures).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/picks", s.handleCreatePick).Methods(http.MethodPost)
	authed.HandleFunc("/picks", s.handleListPicks).Methods(http.MethodGet)
	authed.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping api server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.deps.DBHealth != nil {
		if err := s.deps.DBHealth(ctx); err != nil {
			checks["database"] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "in-memory"
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Health(ctx); err != nil {
			checks["redis"] = fmt.Sprintf("unhealthy: %v", err)
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "disabled"
	}

	if s.deps.Trainer != nil && s.deps.Trainer.Status().Trained {
		checks["model"] = "trained"
	} else {
		checks["model"] = "untrained"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status":    overall,
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
