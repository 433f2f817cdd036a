package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

// standingsCacheTTL bounds staleness between form-worker refreshes.
const standingsCacheTTL = 30 * time.Minute

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

type leagueRequest struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	Season      int    `json:"season"`
	Description string `json:"description"`
}

func (s *Server) handleListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.deps.Leagues.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list leagues", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list leagues")
		return
	}
	writeJSON(w, http.StatusOK, leagues)
}

func (s *Server) handleCreateLeague(w http.ResponseWriter, r *http.Request) {
	var req leagueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Season <= 0 {
		writeError(w, http.StatusBadRequest, "name and season are required")
		return
	}

	league := &domain.League{
		Name:        req.Name,
		Country:     req.Country,
		Season:      req.Season,
		Description: req.Description,
	}
	if err := s.deps.Leagues.Create(r.Context(), league); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "league already exists")
			return
		}
		s.logger.Error("failed to create league", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create league")
		return
	}
	writeJSON(w, http.StatusCreated, league)
}

func (s *Server) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	league, err := s.deps.Leagues.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "league not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load league")
		return
	}
	writeJSON(w, http.StatusOK, league)
}

func (s *Server) handleUpdateLeague(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	league, err := s.deps.Leagues.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "league not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load league")
		return
	}

	var req leagueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		league.Name = req.Name
	}
	if req.Country != "" {
		league.Country = req.Country
	}
	if req.Season > 0 {
		league.Season = req.Season
	}
	if req.Description != "" {
		league.Description = req.Description
	}

	if err := s.deps.Leagues.Update(r.Context(), league); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "league name already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update league")
		return
	}
	writeJSON(w, http.StatusOK, league)
}

func (s *Server) handleDeleteLeague(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	if err := s.deps.Leagues.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "league not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete league")
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.InvalidateStandings(r.Context(), id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}

	if s.deps.Cache != nil {
		if table, err := s.deps.Cache.GetStandings(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, table)
			return
		}
	}

	if _, err := s.deps.Leagues.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "league not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load league")
		return
	}

	table, err := s.deps.Leagues.Standings(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to compute standings", "league_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute standings")
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.SetStandings(r.Context(), id, table, standingsCacheTTL)
	}
	writeJSON(w, http.StatusOK, table)
}
