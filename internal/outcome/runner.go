package outcome

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmill/reversal/internal/logger"
	"github.com/quantmill/reversal/internal/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// CandleFetcher fetches historical candles for outcome evaluation.
type CandleFetcher interface {
	GetCandles(ctx context.Context, symbol string, interval types.Interval, lookbackDays int) (types.CandleSeries, error)
}

// RunStats summarizes one evaluation batch.
type RunStats struct {
	Total            int
	Complete         int
	Pending          int
	InsufficientData int
	Errors           int
}

// Runner drives a batch outcome evaluation: load alerts needing evaluation,
// fetch candles once per (symbol, timeframe) group, evaluate and upsert.
type Runner struct {
	store   *Store
	fetcher CandleFetcher
	cfg     Config
	logger  *logger.Logger
}

// NewRunner constructs a Runner.
func NewRunner(store *Store, fetcher CandleFetcher, cfg Config, logger *logger.Logger) *Runner {
	return &Runner{
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

type alertGroup struct {
	symbol    string
	timeframe types.Interval
	alerts    []StoredAlert
}

// Run evaluates all alerts in the trailing lookback that still need an
// outcome. A failure on one alert is recorded and never aborts the batch.
func (r *Runner) Run(ctx context.Context, lookbackHours, maxCount int, force bool) (RunStats, error) {
	stats := RunStats{}

	alerts, err := r.store.LoadAlertsNeedingEvaluation(lookbackHours, maxCount, force)
	if err != nil {
		return stats, err
	}

	stats.Total = len(alerts)

	if len(alerts) == 0 {
		r.logger.Info("no alerts need evaluation")

		return stats, nil
	}

	groups := groupAlerts(alerts)

	bar := progressbar.Default(int64(len(alerts)), "evaluating outcomes")

	now := time.Now().UTC()

	for _, group := range groups {
		series, fetchErr := r.fetcher.GetCandles(ctx, group.symbol, group.timeframe, r.lookbackDaysFor(group, now))
		if fetchErr != nil {
			r.logger.Warn("candle fetch failed for alert group",
				zap.String("symbol", group.symbol),
				zap.String("timeframe", string(group.timeframe)),
				zap.Error(fetchErr),
			)
		}

		for _, alert := range group.alerts {
			var record types.OutcomeRecord

			if fetchErr != nil {
				record = ComputeOutcome(alert, nil, now, r.cfg)
				record.Notes = fmt.Sprintf("OHLCV fetch error: %v", fetchErr)
			} else {
				record = ComputeOutcome(alert, series, now, r.cfg)
			}

			if err := r.store.UpsertOutcome(record); err != nil {
				stats.Errors++

				r.logger.Error("failed to store outcome",
					zap.String("alert_id", alert.AlertID),
					zap.Error(err),
				)

				_ = bar.Add(1)

				continue
			}

			switch record.EvaluationStatus {
			case types.EvaluationStatusComplete:
				stats.Complete++
			case types.EvaluationStatusPending:
				stats.Pending++
			case types.EvaluationStatusInsufficientData:
				stats.InsufficientData++
			}

			_ = bar.Add(1)
		}
	}

	r.logger.Info("outcome evaluation finished",
		zap.Int("total", stats.Total),
		zap.Int("complete", stats.Complete),
		zap.Int("pending", stats.Pending),
		zap.Int("insufficient_data", stats.InsufficientData),
		zap.Int("errors", stats.Errors),
	)

	return stats, nil
}

// lookbackDaysFor sizes the candle fetch so it covers the oldest alert in
// the group plus its longest horizon, with a few days of slack.
func (r *Runner) lookbackDaysFor(group alertGroup, now time.Time) int {
	earliest := group.alerts[0].Time
	for _, alert := range group.alerts[1:] {
		if alert.Time.Before(earliest) {
			earliest = alert.Time
		}
	}

	daysSince := int(now.Sub(earliest).Hours()/24) + 1
	horizonDays := r.cfg.MaxHorizonHours(group.timeframe)/24 + 1

	days := daysSince + horizonDays + 3
	if days < 7 {
		days = 7
	}

	return days
}

func groupAlerts(alerts []StoredAlert) []alertGroup {
	index := make(map[string]int)
	groups := make([]alertGroup, 0)

	for _, alert := range alerts {
		key := alert.Symbol + "|" + string(alert.Timeframe)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i

			groups = append(groups, alertGroup{symbol: alert.Symbol, timeframe: alert.Timeframe})
		}

		groups[i].alerts = append(groups[i].alerts, alert)
	}

	return groups
}
