package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/pitchside/predictor/internal/core/config"
	"github.com/pitchside/predictor/internal/infra/storage/postgres"
	"github.com/pitchside/predictor/internal/seed"
)

func main() {
	var (
		configPath string
		league     string
		country    string
		season     int
		teams      int
		played     float64
		randSeed   int64
	)

	root := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with a deterministic sample season",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("seeding requires a database URL in %s", configPath)
			}

			logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
				Level:      slog.LevelInfo,
				TimeFormat: time.RFC3339,
			}))

			ctx := cmd.Context()
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to init database: %w", err)
			}
			defer db.Close()

			s := seed.New(
				postgres.NewLeagueRepo(db),
				postgres.NewTeamRepo(db),
				postgres.NewMatchRepo(db),
				postgres.NewInjuryRepo(db),
				logger,
			)
			summary, err := s.Run(ctx, seed.Options{
				LeagueName:     league,
				Country:        country,
				Season:         season,
				Teams:          teams,
				PlayedFraction: played,
				RandSeed:       randSeed,
			})
			if err != nil {
				return err
			}

			fmt.Printf("seeded %q: %d teams, %d matches (%d played), %d injuries\n",
				league, summary.Teams, summary.Matches, summary.Played, summary.Injuries)
			return nil
		},
	}

	root.Flags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	root.Flags().StringVar(&league, "league", "Premier League", "League name")
	root.Flags().StringVar(&country, "country", "England", "League country")
	root.Flags().IntVar(&season, "season", time.Now().Year(), "Season year")
	root.Flags().IntVar(&teams, "teams", 12, "Number of teams")
	root.Flags().Float64Var(&played, "played", 0.6, "Fraction of the schedule with results")
	root.Flags().Int64Var(&randSeed, "rand-seed", 2025, "Random seed for simulated scores")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
