package api

import (
	"errors"
	"net/http"

	"github.com/pitchside/predictor/internal/infra/storage"
	"github.com/pitchside/predictor/internal/ml"
)

type accuracyResponse struct {
	ModelVersion string  `json:"model_version"`
	Scored       int     `json:"scored"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`
}

func (s *Server) handleGetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	if s.deps.Cache != nil {
		if p, err := s.deps.Cache.GetPrediction(r.Context(), id); err == nil {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}

	p, err := s.deps.Predictions.GetLatestByMatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no prediction for this match")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load prediction")
		return
	}
	if s.deps.Cache != nil {
		s.deps.Cache.SetPrediction(r.Context(), p, s.ml.CacheTTL)
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
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
	if match.Finished() {
		writeError(w, http.StatusBadRequest, "match already has a result")
		return
	}

	p, err := s.deps.Trainer.Predict(r.Context(), match)
	if err != nil {
		if errors.Is(err, ml.ErrNotTrained) {
			writeError(w, http.StatusConflict, "models are not trained yet")
			return
		}
		s.logger.Error("failed to generate prediction", "match_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate prediction")
		return
	}
	if err := s.deps.Predictions.Create(r.Context(), p); err != nil {
		s.logger.Error("failed to save prediction", "match_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save prediction")
		return
	}

	if s.deps.Cache != nil {
		s.deps.Cache.SetPrediction(r.Context(), p, s.ml.CacheTTL)
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	version := r.URL.Query().Get("model_version")
	if version == "" {
		version = ml.ModelVersion
	}
	scored, correct, err := s.deps.Predictions.Accuracy(r.Context(), version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute accuracy")
		return
	}
	resp := accuracyResponse{ModelVersion: version, Scored: scored, Correct: correct}
	if scored > 0 {
		resp.Accuracy = float64(correct) / float64(scored)
	}
	writeJSON(w, http.StatusOK, resp)
}
