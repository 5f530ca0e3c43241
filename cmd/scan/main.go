package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/quantmill/reversal/internal/config"
	"github.com/quantmill/reversal/internal/engine"
	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/outcome"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// scanAction loads the configuration, builds the pipeline and runs one scan
// over the configured symbol universe.
func scanAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// CLI flags override the config file.
	if symbols := cmd.String("symbols"); symbols != "" {
		cfg.Scan.Symbols = splitSymbols(symbols)
	}

	if timeframe := cmd.String("timeframe"); timeframe != "" {
		cfg.Scan.Timeframe = timeframe

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid timeframe flag: %w", err)
		}
	}

	if apiKey := os.Getenv("POLYGON_API_KEY"); apiKey != "" && cfg.Data.PolygonAPIKey == "" {
		cfg.Data.PolygonAPIKey = apiKey
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

	eng := engine.NewEngine(provider, store, cfg.EngineConfig(), log)

	results, err := eng.Scan(ctx, cfg.Scan.Symbols, cfg.Timeframe())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printResults(log, results, cmd.Bool("verbose"))

	return nil
}

func printResults(log *logger.Logger, results []engine.ScanResult, verbose bool) {
	for _, result := range results {
		switch result.Result.Status {
		case types.SetupStatusTriggered:
			alert := result.Result.Alert.Unwrap()

			fmt.Printf("ALERT %s %s score=%d close=%.4f entry=[%.4f, %.4f] invalidation=%.4f hold=%s\n",
				alert.Symbol, alert.Timeframe, alert.Score, alert.TriggerClose,
				alert.EntryZone.Low, alert.EntryZone.High, alert.Invalidation, alert.HoldWindow)

			for _, evidence := range alert.Evidence {
				fmt.Printf("  - %s\n", evidence)
			}

			if result.Annotations.IsSome() {
				annotations := result.Annotations.Unwrap()
				if annotations.CooldownActive {
					fmt.Printf("  ! cooldown active (last alert %s ago)\n", annotations.LastAlertAgo.TakeOr("?"))
				}
			}
		case types.SetupStatusNotEvaluated:
			log.Warn("symbol not evaluated",
				zap.String("symbol", result.Symbol),
				zap.String("reason", result.Result.Reason),
			)
		case types.SetupStatusEvaluatedNoSetup:
			if verbose {
				fmt.Printf("no setup %s: %s\n", result.Symbol, result.Result.Reason)
			}
		}
	}
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}

	return symbols
}

func main() {
	cmd := &cli.Command{
		Name:  "scan",
		Usage: "Scan a symbol universe for mean-reversion setups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Comma-separated symbol list, overrides the config file",
			},
			&cli.StringFlag{
				Name:    "timeframe",
				Aliases: []string{"t"},
				Usage:   "Candle timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d), overrides the config file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print evaluated-no-setup results too",
			},
		},
		Action: scanAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
