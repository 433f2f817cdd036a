package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

const defaultMatchPageSize = 50

type matchRequest struct {
	LeagueID   int64     `json:"league_id"`
	HomeTeamID int64     `json:"home_team_id"`
	AwayTeamID int64     `json:"away_team_id"`
	KickoffAt  time.Time `json:"kickoff_at"`
	Matchweek  int       `json:"matchweek"`
	Venue      string    `json:"venue"`
	Referee    string    `json:"referee"`
}

type matchListResponse struct {
	Matches []*domain.Match `json:"matches"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type matchDetailResponse struct {
	*domain.Match
	HomeTeam    *domain.Team `json:"home_team,omitempty"`
	AwayTeam    *domain.Team `json:"away_team,omitempty"`
	Predictions int          `json:"predictions"`
}

type resultRequest struct {
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryInt64(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return n
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	filter := domain.MatchFilter{
		LeagueID: queryInt64(r, "league_id"),
		TeamID:   queryInt64(r, "team_id"),
		Status:   domain.MatchStatus(r.URL.Query().Get("status")),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMatchPageSize
	}

	matches, total, err := s.deps.Matches.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list matches", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	writeJSON(w, http.StatusOK, matchListResponse{
		Matches: matches,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LeagueID <= 0 || req.HomeTeamID <= 0 || req.AwayTeamID <= 0 || req.KickoffAt.IsZero() {
		writeError(w, http.StatusBadRequest, "league_id, home_team_id, away_team_id and kickoff_at are required")
		return
	}
	if req.HomeTeamID == req.AwayTeamID {
		writeError(w, http.StatusBadRequest, "a team cannot play itself")
		return
	}
	if _, err := s.deps.Leagues.GetByID(r.Context(), req.LeagueID); err != nil {
		writeError(w, http.StatusBadRequest, "league does not exist")
		return
	}
	for _, teamID := range []int64{req.HomeTeamID, req.AwayTeamID} {
		team, err := s.deps.Teams.GetByID(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "team does not exist")
			return
		}
		if team.LeagueID != req.LeagueID {
			writeError(w, http.StatusBadRequest, "team is not registered in this league")
			return
		}
	}

	match := &domain.Match{
		LeagueID:   req.LeagueID,
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		KickoffAt:  req.KickoffAt,
		Matchweek:  req.Matchweek,
		Venue:      req.Venue,
		Referee:    req.Referee,
		Status:     domain.MatchScheduled,
	}
	if err := s.deps.Matches.Create(r.Context(), match); err != nil {
		s.logger.Error("failed to create match", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create match")
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	match, err := s.deps.Matches.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load match")
		return
	}

	resp := matchDetailResponse{Match: match}
	if home, err := s.deps.Teams.GetByID(r.Context(), match.HomeTeamID); err == nil {
		resp.HomeTeam = home
	}
	if away, err := s.deps.Teams.GetByID(r.Context(), match.AwayTeamID); err == nil {
		resp.AwayTeam = away
	}
	if n, err := s.deps.Predictions.CountByMatch(r.Context(), id); err == nil {
		resp.Predictions = n
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMatchResult records a final score. Settlement, rating updates and
// prediction scoring happen on the next settle-worker cycle.
func (s *Server) handleMatchResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	match, err := s.deps.Matches.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load match")
		return
	}

	var req resultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HomeGoals < 0 || req.AwayGoals < 0 {
		writeError(w, http.StatusBadRequest, "goals cannot be negative")
		return
	}

	match.HomeGoals = &req.HomeGoals
	match.AwayGoals = &req.AwayGoals
	match.Status = domain.MatchFinished
	if err := s.deps.Matches.Update(r.Context(), match); err != nil {
		s.logger.Error("failed to record result", "match_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record result")
		return
	}

	if s.deps.Cache != nil {
		s.deps.Cache.InvalidateStandings(r.Context(), match.LeagueID)
		s.deps.Cache.InvalidatePrediction(r.Context(), id)
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}
	if err := s.deps.Matches.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete match")
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.InvalidatePrediction(r.Context(), id)
	}
	w.WriteHeader(http.StatusNoContent)
}
