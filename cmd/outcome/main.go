package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quantmill/reversal/internal/config"
	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/outcome"
	"github.com/quantmill/reversal/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

// outcomeAction loads the configuration and evaluates outcomes for alerts
// in the trailing lookback window.
func outcomeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if apiKey := os.Getenv("POLYGON_API_KEY"); apiKey != "" && cfg.Data.PolygonAPIKey == "" {
		cfg.Data.PolygonAPIKey = apiKey
	}

	lookbackHours := cfg.Outcome.LookbackHours
	if hours := cmd.Int("lookback-hours"); hours > 0 {
		lookbackHours = int(hours)
	}

	maxAlerts := cfg.Outcome.MaxAlerts
	if count := cmd.Int("max-alerts"); count > 0 {
		maxAlerts = int(count)
	}

	provider, err := marketdata.NewProvider(cfg.Data)
	if err != nil {
		return fmt.Errorf("failed to create candle provider: %w", err)
	}

	store, err := outcome.NewStore(cfg.Store.Path, log)
	if err != nil {
		return fmt.Errorf("failed to open alert store: %w", err)
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize alert store: %w", err)
	}

	runner := outcome.NewRunner(store, provider, cfg.OutcomeEvalConfig(), log)

	stats, err := runner.Run(ctx, lookbackHours, maxAlerts, cmd.Bool("force"))
	if err != nil {
		return fmt.Errorf("outcome evaluation failed: %w", err)
	}

	fmt.Printf("evaluated %d alerts: %d complete, %d pending, %d insufficient data, %d errors\n",
		stats.Total, stats.Complete, stats.Pending, stats.InsufficientData, stats.Errors)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "outcome",
		Usage: "Evaluate forward outcomes for logged alerts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.IntFlag{
				Name:    "lookback-hours",
				Aliases: []string{"l"},
				Usage:   "How far back to look for alerts needing evaluation, overrides the config file",
			},
			&cli.IntFlag{
				Name:    "max-alerts",
				Aliases: []string{"m"},
				Usage:   "Maximum number of alerts to evaluate in one run, overrides the config file",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Re-evaluate alerts that already have a settled outcome",
			},
		},
		Action: outcomeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
