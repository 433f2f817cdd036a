package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

type teamRequest struct {
	LeagueID      int64    `json:"league_id"`
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	City          string   `json:"city"`
	FoundedYear   int      `json:"founded_year"`
	Stadium       string   `json:"stadium"`
	HomeAdvantage *float64 `json:"home_advantage"`
}

type teamResponse struct {
	*domain.Team
	Form *domain.TeamForm `json:"form,omitempty"`
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league id")
		return
	}
	if _, err := s.deps.Leagues.GetByID(r.Context(), leagueID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "league not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load league")
		return
	}
	teams, err := s.deps.Teams.ListByLeague(r.Context(), leagueID)
	if err != nil {
		s.logger.Error("failed to list teams", "league_id", leagueID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list teams")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LeagueID <= 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "league_id and name are required")
		return
	}
	if _, err := s.deps.Leagues.GetByID(r.Context(), req.LeagueID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "league does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load league")
		return
	}

	team := &domain.Team{
		LeagueID:    req.LeagueID,
		Name:        req.Name,
		Country:     req.Country,
		City:        req.City,
		FoundedYear: req.FoundedYear,
		Stadium:     req.Stadium,
		Rating:      domain.DefaultRating,
	}
	if req.HomeAdvantage != nil {
		team.HomeAdvantage = *req.HomeAdvantage
	}
	if err := s.deps.Teams.Create(r.Context(), team); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "team already exists in this league")
			return
		}
		s.logger.Error("failed to create team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create team")
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	team, err := s.deps.Teams.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}

	resp := teamResponse{Team: team}
	if form := s.teamForm(r, id); form != nil {
		resp.Form = form
	}
	writeJSON(w, http.StatusOK, resp)
}

// teamForm serves cached form when available and falls back to computing it
// from match history. Nil means form could not be determined.
func (s *Server) teamForm(r *http.Request, teamID int64) *domain.TeamForm {
	if s.deps.Cache != nil {
		if form, err := s.deps.Cache.GetForm(r.Context(), teamID); err == nil {
			return form
		}
	}
	if s.deps.Form == nil {
		return nil
	}
	form, err := s.deps.Form.ComputeForm(r.Context(), teamID, time.Now())
	if err != nil {
		s.logger.Warn("failed to compute team form", "team_id", teamID, "error", err)
		return nil
	}
	return form
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	team, err := s.deps.Teams.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load team")
		return
	}

	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		team.Name = req.Name
	}
	if req.Country != "" {
		team.Country = req.Country
	}
	if req.City != "" {
		team.City = req.City
	}
	if req.FoundedYear > 0 {
		team.FoundedYear = req.FoundedYear
	}
	if req.Stadium != "" {
		team.Stadium = req.Stadium
	}
	if req.HomeAdvantage != nil {
		team.HomeAdvantage = *req.HomeAdvantage
	}

	if err := s.deps.Teams.Update(r.Context(), team); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "team name already taken in this league")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}
