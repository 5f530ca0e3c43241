// Package engine runs the scan pipeline over a symbol universe: fetch
// candles, gate data quality, compute indicators, evaluate the setup and
// log any triggered alerts.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/indicator"
	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/outcome"
	"github.com/quantmill/reversal/internal/quality"
	"github.com/quantmill/reversal/internal/setup"
	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Config holds the scan engine parameters.
type Config struct {
	Workers      int
	LookbackDays int

	Indicators indicator.SetConfig
	Quality    quality.Config
	Setup      setup.Config
}

// DefaultConfig returns the standard scan parameters.
func DefaultConfig() Config {
	return Config{
		Workers:      32,
		LookbackDays: 30,

		Indicators: indicator.DefaultSetConfig(),
		Quality:    quality.DefaultConfig(),
		Setup:      setup.DefaultConfig(),
	}
}

// ScanResult is the outcome of evaluating one symbol.
type ScanResult struct {
	Symbol      string
	Timeframe   types.Interval
	Result      types.SetupResult
	Annotations optional.Option[types.AlertAnnotations]
	Err         error
}

// Engine scans a symbol universe for triggered setups.
type Engine struct {
	provider provider.CandleProvider
	store    *outcome.Store
	cfg      Config
	logger   *logger.Logger
}

// NewEngine constructs a scan engine. The store may be nil, in which case
// triggered alerts are reported but not persisted.
func NewEngine(provider provider.CandleProvider, store *outcome.Store, cfg Config, logger *logger.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	return &Engine{
		provider: provider,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Scan evaluates every symbol at the given timeframe using a worker pool.
// Results are returned in completion order, not input order. A failure on
// one symbol never aborts the scan.
func (e *Engine) Scan(ctx context.Context, symbols []string, timeframe types.Interval) ([]ScanResult, error) {
	runID := uuid.New().String()

	e.logger.Info("starting scan",
		zap.String("run_id", runID),
		zap.Int("symbols", len(symbols)),
		zap.String("timeframe", string(timeframe)),
		zap.Int("workers", e.cfg.Workers),
	)

	jobs := make(chan string)
	results := make(chan ScanResult)

	var wg sync.WaitGroup

	for range e.cfg.Workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for symbol := range jobs {
				results <- e.scanSymbol(ctx, symbol, timeframe)
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, symbol := range symbols {
			select {
			case jobs <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	bar := progressbar.Default(int64(len(symbols)), "scanning")

	collected := make([]ScanResult, 0, len(symbols))
	triggered := 0

	for result := range results {
		_ = bar.Add(1)

		if result.Err != nil {
			e.logger.Warn("symbol scan failed",
				zap.String("run_id", runID),
				zap.String("symbol", result.Symbol),
				zap.Error(result.Err),
			)
		}

		if result.Result.Status == types.SetupStatusTriggered {
			triggered++
		}

		collected = append(collected, result)
	}

	e.logger.Info("scan finished",
		zap.String("run_id", runID),
		zap.Int("evaluated", len(collected)),
		zap.Int("triggered", triggered),
	)

	return collected, ctx.Err()
}

func (e *Engine) scanSymbol(ctx context.Context, symbol string, timeframe types.Interval) ScanResult {
	result := ScanResult{
		Symbol:      symbol,
		Timeframe:   timeframe,
		Annotations: optional.None[types.AlertAnnotations](),
	}

	series, err := e.provider.GetCandles(ctx, symbol, timeframe, e.cfg.LookbackDays)
	if err != nil {
		result.Result = types.NotEvaluated(fmt.Sprintf("candle fetch failed: %v", err))
		result.Err = err

		return result
	}

	now := time.Now().UTC()

	gated, err := quality.Validate(series, timeframe, now, e.cfg.Quality)
	if err != nil {
		result.Result = types.NotEvaluated(fmt.Sprintf("malformed candle series: %v", err))
		result.Err = err

		return result
	}

	if !gated.IsOK() {
		result.Result = types.NotEvaluated(gated.Reason)

		return result
	}

	ind := indicator.ComputeSet(gated.Series, e.cfg.Indicators)

	evalTime := now
	if last, ok := gated.Series.Last(); ok {
		evalTime = last.Time
	}

	result.Result = setup.Evaluate(gated.Series, ind, symbol, timeframe, evalTime, e.cfg.Setup)

	if result.Result.Status == types.SetupStatusTriggered && result.Result.Alert.IsSome() {
		alert := result.Result.Alert.Unwrap()
		result.Annotations = optional.Some(e.annotate(alert, evalTime))

		if e.store != nil {
			if err := e.store.SaveAlert(outcome.NewStoredAlert(alert)); err != nil {
				result.Err = err
			}
		}
	}

	return result
}

// annotate attaches advisory context to a triggered alert. Annotations
// never change the evaluation result.
func (e *Engine) annotate(alert types.Alert, evalTime time.Time) types.AlertAnnotations {
	annotations := types.NewAlertAnnotations(alert)

	if e.store == nil {
		return annotations
	}

	previous, err := e.store.LatestAlert(alert.Symbol, alert.Timeframe)
	if err != nil {
		e.logger.Warn("failed to look up previous alert",
			zap.String("symbol", alert.Symbol),
			zap.Error(err),
		)

		return annotations
	}

	if previous.IsSome() {
		ago := evalTime.Sub(previous.Unwrap().Time)
		annotations.LastAlertAgo = optional.Some(ago.Round(time.Minute).String())
		annotations.CooldownActive = ago < cooldownFor(alert.Timeframe)
	}

	return annotations
}

// cooldownFor is the advisory re-alert window per timeframe.
func cooldownFor(timeframe types.Interval) time.Duration {
	switch timeframe {
	case types.Interval4h:
		return 24 * time.Hour
	case types.Interval1d:
		return 72 * time.Hour
	default:
		return 12 * time.Hour
	}
}
