package config

import (
	"fmt"
	"time"

	"github.com/pitchside/predictor/internal/infra/feed"
	redisclient "github.com/pitchside/predictor/internal/infra/redis"
	"github.com/pitchside/predictor/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Database postgres.Config    `yaml:"database"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Feed     feed.Config        `yaml:"feed"`
	Auth     AuthConfig         `yaml:"auth"`
	Jobs     JobsConfig         `yaml:"jobs"`
	ML       MLConfig           `yaml:"ml"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

// UnmarshalYAML accepts duration fields as strings like "30m".
func (c *AuthConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		JWTSecret      string `yaml:"jwt_secret"`
		AccessTokenTTL string `yaml:"access_token_ttl"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	c.JWTSecret = raw.JWTSecret
	return setDuration(&c.AccessTokenTTL, raw.AccessTokenTTL)
}

// JobsConfig holds background worker intervals. Zero disables a worker.
type JobsConfig struct {
	FixtureSyncInterval time.Duration `yaml:"fixture_sync_interval"`
	OddsInterval        time.Duration `yaml:"odds_interval"`
	FormInterval        time.Duration `yaml:"form_interval"`
	SettleInterval      time.Duration `yaml:"settle_interval"`
	InjuryRetention     time.Duration `yaml:"injury_retention"` // 0 = keep forever
}

func (c *JobsConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		FixtureSyncInterval string `yaml:"fixture_sync_interval"`
		OddsInterval        string `yaml:"odds_interval"`
		FormInterval        string `yaml:"form_interval"`
		SettleInterval      string `yaml:"settle_interval"`
		InjuryRetention     string `yaml:"injury_retention"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *time.Duration
		src string
	}{
		{&c.FixtureSyncInterval, raw.FixtureSyncInterval},
		{&c.OddsInterval, raw.OddsInterval},
		{&c.FormInterval, raw.FormInterval},
		{&c.SettleInterval, raw.SettleInterval},
		{&c.InjuryRetention, raw.InjuryRetention},
	} {
		if err := setDuration(f.dst, f.src); err != nil {
			return err
		}
	}
	return nil
}

// MLConfig holds feature-engineering and training parameters.
type MLConfig struct {
	FormWindow      int           `yaml:"form_window"`  // matches
	H2HWindow       int           `yaml:"h2h_window"`   // matches
	InjuryWindow    time.Duration `yaml:"injury_window"` // lookback for active injuries
	TrainingEpochs  int           `yaml:"training_epochs"`
	LearningRate    float64       `yaml:"learning_rate"`
	MinSamples      int           `yaml:"min_samples"`
	TestSplit       float64       `yaml:"test_split"`
	EnsembleWeights []float64     `yaml:"ensemble_weights"` // softmax, poisson, elo
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxGoals        int           `yaml:"max_goals"` // score grid bound for the Poisson model
}

func (c *MLConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		FormWindow      int       `yaml:"form_window"`
		H2HWindow       int       `yaml:"h2h_window"`
		InjuryWindow    string    `yaml:"injury_window"`
		TrainingEpochs  int       `yaml:"training_epochs"`
		LearningRate    float64   `yaml:"learning_rate"`
		MinSamples      int       `yaml:"min_samples"`
		TestSplit       float64   `yaml:"test_split"`
		EnsembleWeights []float64 `yaml:"ensemble_weights"`
		CacheTTL        string    `yaml:"cache_ttl"`
		MaxGoals        int       `yaml:"max_goals"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	c.FormWindow = raw.FormWindow
	c.H2HWindow = raw.H2HWindow
	c.TrainingEpochs = raw.TrainingEpochs
	c.LearningRate = raw.LearningRate
	c.MinSamples = raw.MinSamples
	c.TestSplit = raw.TestSplit
	c.EnsembleWeights = raw.EnsembleWeights
	c.MaxGoals = raw.MaxGoals
	if err := setDuration(&c.InjuryWindow, raw.InjuryWindow); err != nil {
		return err
	}
	return setDuration(&c.CacheTTL, raw.CacheTTL)
}

// setDuration parses a duration string, leaving the target untouched when
// the field is absent from the YAML.
func setDuration(dst *time.Duration, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*dst = d
	return nil
}
