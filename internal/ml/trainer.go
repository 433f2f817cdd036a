package ml

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/core/domain"
	"github.com/pitchside/predictor/internal/infra/storage"
	"github.com/pitchside/predictor/internal/metrics"
)

// ModelVersion tags persisted predictions with the ensemble that made them.
const ModelVersion = "ensemble-v1"

var (
	// ErrNotTrained is returned by Predict before a successful Train.
	ErrNotTrained = errors.New("models not trained")

	// ErrInsufficientData is returned when too few finished matches exist.
	ErrInsufficientData = errors.New("not enough finished matches to train")
)

// ClassMetrics holds per-outcome precision and recall.
type ClassMetrics struct {
	Outcome   domain.Outcome `json:"outcome"`
	Precision float64        `json:"precision"`
	Recall    float64        `json:"recall"`
}

// EvalMetrics summarizes a training run's holdout performance.
type EvalMetrics struct {
	Accuracy     float64        `json:"accuracy"`
	LogLoss      float64        `json:"log_loss"`
	Brier        float64        `json:"brier_score"`
	PerClass     []ClassMetrics `json:"per_class"`
	Samples      int            `json:"samples"`
	TrainSamples int            `json:"train_samples"`
	TestSamples  int            `json:"test_samples"`
}

// Status reports the trainer's current state.
type Status struct {
	Trained      bool        `json:"trained"`
	TrainedAt    time.Time   `json:"trained_at,omitempty"`
	ModelVersion string      `json:"model_version"`
	Metrics      EvalMetrics `json:"metrics"`
}

// FeatureImportance pairs a feature name with its normalized weight.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Trainer owns the model ensemble: it builds the design matrix from
// finished matches, fits the models, evaluates on a chronological holdout,
// and serves predictions. Safe for concurrent use.
type Trainer struct {
	matches storage.MatchRepository
	teams   storage.TeamRepository
	fe      *FeatureEngineer
	cfg     config.MLConfig
	logger  *slog.Logger

	mu        sync.RWMutex
	processor *DataProcessor
	softmax   *SoftmaxModel
	poisson   *PoissonModel
	elo       EloModel
	status    Status
}

// NewTrainer creates a trainer over the given repositories.
func NewTrainer(
	matches storage.MatchRepository,
	teams storage.TeamRepository,
	fe *FeatureEngineer,
	cfg config.MLConfig,
	logger *slog.Logger,
) *Trainer {
	return &Trainer{
		matches: matches,
		teams:   teams,
		fe:      fe,
		cfg:     cfg,
		logger:  logger.With("component", "trainer"),
		status:  Status{ModelVersion: ModelVersion},
	}
}

// Train fits the ensemble on all finished matches and evaluates it on the
// most recent slice. Returns the holdout metrics.
func (t *Trainer) Train(ctx context.Context) (*EvalMetrics, error) {
	start := time.Now()

	finished, err := t.matches.ListFinished(ctx, 0, 0)
	if err != nil {
		metrics.TrainingRuns.WithLabelValues(ModelVersion, "error").Inc()
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	if len(finished) < t.cfg.MinSamples {
		metrics.TrainingRuns.WithLabelValues(ModelVersion, "insufficient_data").Inc()
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, len(finished), t.cfg.MinSamples)
	}

	// finished is oldest first, which the chronological split relies on.
	X := make([][]float64, 0, len(finished))
	y := make([]int, 0, len(finished))
	for _, m := range finished {
		features, err := t.fe.Features(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("failed to build features for match %d: %w", m.ID, err)
		}
		X = append(X, features)
		y = append(y, labelFor(string(m.Outcome())))
	}

	trainX, trainY, testX, testY := SplitChronological(X, y, t.cfg.TestSplit)

	processor := &DataProcessor{}
	processor.Fit(trainX)
	trainX = processor.Transform(trainX)
	testX = processor.Transform(testX)

	softmax := &SoftmaxModel{}
	softmax.Fit(trainX, trainY, t.cfg.TrainingEpochs, t.cfg.LearningRate, 1e-4)

	poisson := NewPoissonModel(t.cfg.MaxGoals)
	poisson.Fit(finished)

	eval := t.evaluate(softmax, testX, testY)
	eval.Samples = len(X)
	eval.TrainSamples = len(trainX)
	eval.TestSamples = len(testX)

	t.mu.Lock()
	t.processor = processor
	t.softmax = softmax
	t.poisson = poisson
	t.status = Status{
		Trained:      true,
		TrainedAt:    time.Now(),
		ModelVersion: ModelVersion,
		Metrics:      eval,
	}
	t.mu.Unlock()

	metrics.TrainingRuns.WithLabelValues(ModelVersion, "success").Inc()
	t.logger.Info("training complete",
		"samples", eval.Samples,
		"accuracy", eval.Accuracy,
		"log_loss", eval.LogLoss,
		"duration", time.Since(start))
	return &eval, nil
}

// evaluate scores the softmax model on the holdout set.
func (t *Trainer) evaluate(model *SoftmaxModel, testX [][]float64, testY []int) EvalMetrics {
	eval := EvalMetrics{
		PerClass: []ClassMetrics{
			{Outcome: domain.OutcomeAwayWin},
			{Outcome: domain.OutcomeDraw},
			{Outcome: domain.OutcomeHomeWin},
		},
	}
	if len(testX) == 0 {
		return eval
	}

	const epsilon = 1e-15
	var correct int
	var logLoss, brier float64
	var truePos, falsePos, falseNeg [numClasses]int

	for i, x := range testX {
		probs := model.Predict(x)
		predicted := argmax(probs)
		actual := testY[i]

		if predicted == actual {
			correct++
			truePos[actual]++
		} else {
			falsePos[predicted]++
			falseNeg[actual]++
		}

		logLoss -= math.Log(math.Max(probs[actual], epsilon))
		for c, p := range probs {
			target := 0.0
			if c == actual {
				target = 1.0
			}
			brier += (p - target) * (p - target)
		}
	}

	n := float64(len(testX))
	eval.Accuracy = float64(correct) / n
	eval.LogLoss = logLoss / n
	eval.Brier = brier / n
	for c := 0; c < numClasses; c++ {
		if tp := truePos[c]; tp+falsePos[c] > 0 {
			eval.PerClass[c].Precision = float64(tp) / float64(tp+falsePos[c])
		}
		if tp := truePos[c]; tp+falseNeg[c] > 0 {
			eval.PerClass[c].Recall = float64(tp) / float64(tp+falseNeg[c])
		}
	}
	return eval
}

// Predict runs the weighted ensemble for a match and returns a persisted-
// ready prediction. Requires a prior successful Train.
func (t *Trainer) Predict(ctx context.Context, match *domain.Match) (*domain.Prediction, error) {
	t.mu.RLock()
	processor, softmax, poisson := t.processor, t.softmax, t.poisson
	t.mu.RUnlock()
	if processor == nil || !processor.Fitted() {
		return nil, ErrNotTrained
	}

	features, err := t.fe.Features(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to build features: %w", err)
	}

	home, err := t.teams.GetByID(ctx, match.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load home team: %w", err)
	}
	away, err := t.teams.GetByID(ctx, match.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load away team: %w", err)
	}

	softmaxProbs := softmax.Predict(processor.TransformRow(features))
	poissonProbs, lambdaHome, lambdaAway := poisson.Predict(home.ID, away.ID)
	eloProbs := t.elo.Predict(home.Rating, away.Rating, home.HomeAdvantage)

	combined := combine(t.cfg.EnsembleWeights, softmaxProbs, poissonProbs, eloProbs)

	p := &domain.Prediction{
		MatchID:      match.ID,
		ProbHome:     combined[ClassHome],
		ProbDraw:     combined[ClassDraw],
		ProbAway:     combined[ClassAway],
		ExpGoalsHome: lambdaHome,
		ExpGoalsAway: lambdaAway,
		Confidence:   math.Max(combined[ClassHome], math.Max(combined[ClassDraw], combined[ClassAway])),
		ModelVersion: ModelVersion,
	}
	p.Outcome = p.Pick()

	metrics.PredictionsGenerated.WithLabelValues(ModelVersion).Inc()
	return p, nil
}

// combine takes a weighted average of probability vectors and renormalizes.
func combine(weights []float64, vectors ...[]float64) []float64 {
	combined := make([]float64, numClasses)
	var total float64
	for i, vec := range vectors {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		for c := range combined {
			combined[c] += w * vec[c]
		}
	}
	for _, v := range combined {
		total += v
	}
	if total > 0 {
		for c := range combined {
			combined[c] /= total
		}
	}
	return combined
}

// Status returns the trainer's current state.
func (t *Trainer) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// FeatureImportances returns softmax coefficient magnitudes per feature,
// sorted by the FeatureNames order.
func (t *Trainer) FeatureImportances() ([]FeatureImportance, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.softmax == nil {
		return nil, ErrNotTrained
	}
	values := t.softmax.Importances()
	out := make([]FeatureImportance, len(values))
	for i, v := range values {
		out[i] = FeatureImportance{Feature: FeatureNames[i], Importance: v}
	}
	return out, nil
}

func argmax(probs []float64) int {
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best
}
