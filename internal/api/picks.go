package api

import (
	"errors"
	"net/http"

	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
)

const defaultPickPageSize = 50

type pickRequest struct {
	MatchID    int64          `json:"match_id"`
	Prediction domain.Outcome `json:"prediction"`
	Confidence int            `json:"confidence"`
	Odds       *float64       `json:"odds_selected"`
	Stake      *float64       `json:"stake"`
	Reasoning  string         `json:"reasoning"`
}

func validOutcome(o domain.Outcome) bool {
	switch o {
	case domain.OutcomeHomeWin, domain.OutcomeDraw, domain.OutcomeAwayWin:
		return true
	}
	return false
}

func (s *Server) handleCreatePick(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req pickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validOutcome(req.Prediction) {
		writeError(w, http.StatusBadRequest, "prediction must be home_win, draw or away_win")
		return
	}
	if req.Confidence < 1 || req.Confidence > 100 {
		writeError(w, http.StatusBadRequest, "confidence must be between 1 and 100")
		return
	}
	if req.Stake != nil && *req.Stake <= 0 {
		writeError(w, http.StatusBadRequest, "stake must be positive")
		return
	}

	match, err := s.deps.Matches.GetByID(r.Context(), req.MatchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load match")
		return
	}
	if match.Status == domain.MatchFinished {
		writeError(w, http.StatusBadRequest, "match already finished")
		return
	}

	pick := &domain.Pick{
		UserID:       userID,
		MatchID:      req.MatchID,
		Prediction:   req.Prediction,
		Confidence:   req.Confidence,
		OddsSelected: req.Odds,
		Stake:        req.Stake,
		Reasoning:    req.Reasoning,
		Status:       domain.PickPending,
	}
	if pick.Stake != nil && pick.OddsSelected != nil {
		potential := *pick.Stake * *pick.OddsSelected
		pick.Potential = &potential
	}

	if err := s.deps.Picks.Create(r.Context(), pick); err != nil {
		s.logger.Error("failed to create pick", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create pick")
		return
	}
	writeJSON(w, http.StatusCreated, pick)
}

func (s *Server) handleListPicks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit := queryInt(r, "limit")
	if limit <= 0 {
		limit = defaultPickPageSize
	}
	picks, err := s.deps.Picks.ListByUser(r.Context(), userID, limit, queryInt(r, "offset"))
	if err != nil {
		s.logger.Error("failed to list picks", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list picks")
		return
	}
	writeJSON(w, http.StatusOK, picks)
}
