// Package outcome retroactively scores triggered alerts: forward returns,
// maximum favorable/adverse excursion and target/stop hit results over
// configurable horizons, persisted as idempotent records keyed by a
// deterministic alert id.
package outcome

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/types"
	"github.com/shopspring/decimal"
)

// Config holds the outcome evaluation parameters.
type Config struct {
	// Per-timeframe horizon lists in integer hours.
	Horizons1h []int
	Horizons4h []int
	Horizons1d []int

	// MFEMAEUseHighLow selects bar highs/lows for excursion measurement;
	// when false only closes are used.
	MFEMAEUseHighLow bool

	// Hit rule multiples of the alert-time ATR.
	HitTargetATR float64
	HitStopATR   float64

	// HorizonToleranceBars is how many bar intervals the last bar may fall
	// short of the horizon end before the horizon counts as incomplete.
	HorizonToleranceBars int
}

// DefaultConfig returns the standard outcome evaluation parameters.
func DefaultConfig() Config {
	return Config{
		Horizons1h:           []int{4, 12, 24, 48},
		Horizons4h:           []int{24, 48, 72},
		Horizons1d:           []int{24, 72, 168},
		MFEMAEUseHighLow:     true,
		HitTargetATR:         1.0,
		HitStopATR:           0.7,
		HorizonToleranceBars: 1,
	}
}

// HorizonsFor returns the horizon list for a timeframe. Unknown timeframes
// fall back to the 1h horizons.
func (c Config) HorizonsFor(timeframe types.Interval) []int {
	switch timeframe {
	case types.Interval1h:
		return c.Horizons1h
	case types.Interval4h:
		return c.Horizons4h
	case types.Interval1d:
		return c.Horizons1d
	default:
		return c.Horizons1h
	}
}

// MaxHorizonHours returns the largest configured horizon for a timeframe.
func (c Config) MaxHorizonHours(timeframe types.Interval) int {
	maxHours := 48
	for _, h := range c.HorizonsFor(timeframe) {
		if h > maxHours {
			maxHours = h
		}
	}

	return maxHours
}

// ComputeOutcome evaluates one alert against a later candle series.
//
// Aggregate status: INSUFFICIENT_DATA when no horizon produced a forward
// return, COMPLETE when every horizon window is fully covered, otherwise
// PENDING (retry later with more history).
func ComputeOutcome(alert StoredAlert, series types.CandleSeries, now time.Time, cfg Config) types.OutcomeRecord {
	record := types.OutcomeRecord{
		AlertID:            alert.AlertID,
		Time:               alert.Time,
		Symbol:             alert.Symbol,
		Timeframe:          alert.Timeframe,
		Setup:              alert.Setup,
		Direction:          alert.Direction,
		Score:              alert.Score,
		EntryPrice:         alert.EntryPrice(),
		ATRAtAlert:         alert.ATR,
		BarIntervalMinutes: alert.Timeframe.MinutesOrDefault(60),
		Horizons:           make(map[int]types.HorizonMetrics),
		TrendRegime:        alert.TrendRegime,
		VolRegime:          alert.VolRegime,
		EvaluatedAt:        now,
	}

	if len(series) == 0 {
		record.EvaluationStatus = types.EvaluationStatusInsufficientData
		record.Notes = "no OHLCV data available"

		return record
	}

	barInterval := time.Duration(record.BarIntervalMinutes) * time.Minute
	tolerance := time.Duration(cfg.HorizonToleranceBars) * barInterval

	allComplete := true
	anyComputed := false

	for _, horizonHours := range cfg.HorizonsFor(alert.Timeframe) {
		metrics := types.HorizonMetrics{
			ForwardReturn: optional.None[float64](),
			MFE:           optional.None[float64](),
			MAE:           optional.None[float64](),
			Hit:           optional.None[bool](),
		}

		horizonEnd := alert.Time.Add(time.Duration(horizonHours) * time.Hour)

		closeAtHorizon, complete := findCloseAtHorizon(series, horizonEnd, tolerance)
		metrics.Complete = complete

		if closeAtHorizon.IsSome() {
			fwd := forwardReturn(alert.Direction, record.EntryPrice, closeAtHorizon.Unwrap())
			metrics.ForwardReturn = optional.Some(round4(fwd))
			anyComputed = true
		}

		if !complete {
			allComplete = false
		}

		mfe, mae := computeMFEMAE(series, alert.Time, horizonEnd, record.EntryPrice, alert.Direction, cfg.MFEMAEUseHighLow)
		if mfe.IsSome() {
			metrics.MFE = optional.Some(round4(mfe.Unwrap()))
			metrics.MAE = optional.Some(round4(mae.Unwrap()))
		}

		if alert.ATR > 0 {
			metrics.Hit = checkHit(series, alert.Time, horizonEnd, record.EntryPrice, alert.ATR, alert.Direction, cfg)
		}

		record.Horizons[horizonHours] = metrics
	}

	switch {
	case !anyComputed:
		record.EvaluationStatus = types.EvaluationStatusInsufficientData
		record.Notes = "no future candles available for evaluation"
	case allComplete:
		record.EvaluationStatus = types.EvaluationStatusComplete
	default:
		record.EvaluationStatus = types.EvaluationStatusPending
		record.Notes = "some horizons incomplete - will retry"
	}

	return record
}

// findCloseAtHorizon locates the close of the last bar at or before the
// horizon end. The horizon is complete only when that bar falls within the
// tolerance of the horizon end.
func findCloseAtHorizon(series types.CandleSeries, horizonEnd time.Time, tolerance time.Duration) (optional.Option[float64], bool) {
	idx := -1

	for i := len(series) - 1; i >= 0; i-- {
		if !series[i].Time.After(horizonEnd) {
			idx = i

			break
		}
	}

	if idx < 0 {
		return optional.None[float64](), false
	}

	gap := horizonEnd.Sub(series[idx].Time)

	return optional.Some(series[idx].Close), gap <= tolerance
}

// forwardReturn is the signed percentage move from entry to the horizon
// close; positive is favorable for the alert's direction.
func forwardReturn(direction types.Direction, entry, closeAtHorizon float64) float64 {
	if direction == types.DirectionShort {
		return (entry - closeAtHorizon) / entry * 100
	}

	return (closeAtHorizon - entry) / entry * 100
}

// computeMFEMAE measures the best and worst excursion over bars strictly
// after the alert time up to and including the horizon end. MAE is signed
// (negative when adverse for the direction).
func computeMFEMAE(series types.CandleSeries, alertTime, horizonEnd time.Time, entry float64, direction types.Direction, useHighLow bool) (mfe, mae optional.Option[float64]) {
	maxPrice := 0.0
	minPrice := 0.0
	seen := false

	for _, bar := range series {
		if !bar.Time.After(alertTime) || bar.Time.After(horizonEnd) {
			continue
		}

		high, low := bar.Close, bar.Close
		if useHighLow {
			high, low = bar.High, bar.Low
		}

		if !seen {
			maxPrice, minPrice = high, low
			seen = true

			continue
		}

		if high > maxPrice {
			maxPrice = high
		}

		if low < minPrice {
			minPrice = low
		}
	}

	if !seen {
		return optional.None[float64](), optional.None[float64]()
	}

	if direction == types.DirectionShort {
		return optional.Some((entry - minPrice) / entry * 100),
			optional.Some((entry - maxPrice) / entry * 100)
	}

	return optional.Some((maxPrice - entry) / entry * 100),
		optional.Some((minPrice - entry) / entry * 100)
}

// checkHit scans the horizon window chronologically and resolves the hit
// rule. A single bar touching both target and stop counts as a stop
// (conservative tie-break). A window that ends with neither touched is a
// definite false; only an empty window yields None.
func checkHit(series types.CandleSeries, alertTime, horizonEnd time.Time, entry, atr float64, direction types.Direction, cfg Config) optional.Option[bool] {
	var targetPrice, stopPrice float64

	if direction == types.DirectionShort {
		targetPrice = entry - cfg.HitTargetATR*atr
		stopPrice = entry + cfg.HitStopATR*atr
	} else {
		targetPrice = entry + cfg.HitTargetATR*atr
		stopPrice = entry - cfg.HitStopATR*atr
	}

	seen := false

	for _, bar := range series {
		if !bar.Time.After(alertTime) || bar.Time.After(horizonEnd) {
			continue
		}

		seen = true

		var targetTouched, stopTouched bool

		if direction == types.DirectionShort {
			targetTouched = bar.Low <= targetPrice
			stopTouched = bar.High >= stopPrice
		} else {
			targetTouched = bar.High >= targetPrice
			stopTouched = bar.Low <= stopPrice
		}

		if targetTouched && stopTouched {
			return optional.Some(false)
		}

		if stopTouched {
			return optional.Some(false)
		}

		if targetTouched {
			return optional.Some(true)
		}
	}

	if !seen {
		return optional.None[bool]()
	}

	return optional.Some(false)
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
