package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.Jobs.FixtureSyncInterval == 0 {
		cfg.Jobs.FixtureSyncInterval = 30 * time.Minute
	}
	if cfg.Jobs.OddsInterval == 0 {
		cfg.Jobs.OddsInterval = 15 * time.Minute
	}
	if cfg.Jobs.FormInterval == 0 {
		cfg.Jobs.FormInterval = 10 * time.Minute
	}
	if cfg.Jobs.SettleInterval == 0 {
		cfg.Jobs.SettleInterval = 5 * time.Minute
	}
	if cfg.ML.FormWindow == 0 {
		cfg.ML.FormWindow = 5
	}
	if cfg.ML.H2HWindow == 0 {
		cfg.ML.H2HWindow = 20
	}
	if cfg.ML.InjuryWindow == 0 {
		cfg.ML.InjuryWindow = 14 * 24 * time.Hour
	}
	if cfg.ML.TrainingEpochs == 0 {
		cfg.ML.TrainingEpochs = 400
	}
	if cfg.ML.LearningRate == 0 {
		cfg.ML.LearningRate = 0.15
	}
	if cfg.ML.MinSamples == 0 {
		cfg.ML.MinSamples = 50
	}
	if cfg.ML.TestSplit == 0 {
		cfg.ML.TestSplit = 0.2
	}
	if len(cfg.ML.EnsembleWeights) == 0 {
		cfg.ML.EnsembleWeights = []float64{0.4, 0.35, 0.25}
	}
	if cfg.ML.CacheTTL == 0 {
		cfg.ML.CacheTTL = 10 * time.Minute
	}
	if cfg.ML.MaxGoals == 0 {
		cfg.ML.MaxGoals = 10
	}
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 10 * time.Second
	}
}
