package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/pitchside/predictor/internal/ml"
)

const defaultTopFeatures = 10

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	eval, err := s.deps.Trainer.Train(r.Context())
	if err != nil {
		if errors.Is(err, ml.ErrInsufficientData) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("training failed", "error", err)
		writeError(w, http.StatusInternalServerError, "training failed")
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleMLStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Trainer.Status())
}

func (s *Server) handleTopFeatures(w http.ResponseWriter, r *http.Request) {
	importances, err := s.deps.Trainer.FeatureImportances()
	if err != nil {
		if errors.Is(err, ml.ErrNotTrained) {
			writeError(w, http.StatusConflict, "models are not trained yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load feature importances")
		return
	}

	sort.Slice(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})
	n := queryInt(r, "limit")
	if n <= 0 || n > len(importances) {
		n = defaultTopFeatures
		if n > len(importances) {
			n = len(importances)
		}
	}
	writeJSON(w, http.StatusOK, importances[:n])
}
