package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks API requests per route and status class
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration tracks API request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictor_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// PredictionsGenerated tracks predictions produced per model version
	PredictionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_predictions_generated_total",
			Help: "Total number of match predictions generated",
		},
		[]string{"model"},
	)

	// PredictionAccuracy tracks the rolling accuracy of scored predictions
	PredictionAccuracy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "predictor_prediction_accuracy",
			Help: "Fraction of scored predictions that were correct",
		},
		[]string{"model"},
	)

	// FeedRequestsTotal tracks upstream data feed calls
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_feed_requests_total",
			Help: "Total number of data feed requests",
		},
		[]string{"endpoint", "status"},
	)

	// MatchesSettled tracks results processed by the settle worker
	MatchesSettled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "predictor_matches_settled_total",
			Help: "Total number of finished matches settled",
		},
	)

	// CacheHits tracks Redis cache hits and misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"key_type", "result"},
	)

	// DBConnectionPoolUsage tracks database connection pool utilisation
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "predictor_db_pool_usage_percent",
			Help: "Percentage of the database connection pool in use",
		},
	)

	// TrainingRuns tracks completed model training runs
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"model", "outcome"},
	)
)
