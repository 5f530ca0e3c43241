// Package quality validates and cleans a candle series before any indicator
// is trusted. It drops the still-forming last candle, enforces per-timeframe
// minimum bar counts and detects timestamp gaps.
//
// Expected data problems (no data, too few bars, large gaps) come back as
// statuses. Malformed input (out-of-order or duplicate timestamps, missing
// OHLCV values) is a collaborator bug and fails loudly with an error
// instead of being coerced into a neutral status.
package quality

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/quantmill/reversal/internal/types"
	"github.com/quantmill/reversal/pkg/errors"
)

// Status is the result status of a data quality check.
type Status string

const (
	StatusOK               Status = "ok"
	StatusNoData           Status = "no_data"
	StatusInsufficientBars Status = "insufficient_bars"
	StatusBadDataGaps      Status = "bad_data_gaps"
)

// Result is the outcome of validating one candle series. Immutable once
// produced.
type Result struct {
	Status   Status
	Series   types.CandleSeries
	Reason   string
	Warnings []string
}

// IsOK reports whether the series passed all checks.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.IsOK() {
		return fmt.Sprintf("DataQuality: OK (%d bars)", len(r.Series))
	}

	return fmt.Sprintf("DataQuality: %s - %s", r.Status, r.Reason)
}

// defaultMinBars is the per-timeframe minimum bar count used when the config
// carries no override.
var defaultMinBars = map[types.Interval]int{
	types.Interval1m:  500,
	types.Interval5m:  400,
	types.Interval15m: 350,
	types.Interval30m: 300,
	types.Interval1h:  350,
	types.Interval4h:  250,
	types.Interval1d:  200,
}

const fallbackMinBars = 250

// Config holds the gate thresholds.
type Config struct {
	// MinBars overrides the default per-timeframe minimum bar counts.
	MinBars map[types.Interval]int
	// MaxGapMultiplier flags a timestamp delta above interval*multiplier as
	// a large gap that fails the gate.
	MaxGapMultiplier float64
	// GapLookbackBars limits the gap scan to the most recent bars.
	GapLookbackBars int
	// DropPartial drops the still-forming last candle before other checks.
	DropPartial bool
}

// DefaultConfig returns the standard gate thresholds.
func DefaultConfig() Config {
	return Config{
		MinBars:          nil,
		MaxGapMultiplier: 3.0,
		GapLookbackBars:  200,
		DropPartial:      true,
	}
}

// MinBarsFor resolves the minimum bar count for a timeframe.
func (c Config) MinBarsFor(interval types.Interval) int {
	if c.MinBars != nil {
		if v, ok := c.MinBars[interval]; ok {
			return v
		}
	}

	if v, ok := defaultMinBars[interval]; ok {
		return v
	}

	return fallbackMinBars
}

// Validate runs the full gate on a candle series:
//
//  1. malformed input -> error
//  2. empty input -> StatusNoData
//  3. drop the partial last candle (warning, never an error)
//  4. minimum bar count -> StatusInsufficientBars
//  5. gap scan over the trailing window -> StatusBadDataGaps
//
// The ordering is deliberate: partial-candle removal happens before the bar
// count and gap checks so a single forming candle never causes a false
// failure. The input series is never mutated; the cleaned series shares its
// backing array but is re-sliced only.
func Validate(series types.CandleSeries, interval types.Interval, now time.Time, cfg Config) (Result, error) {
	intervalDuration, err := interval.Duration()
	if err != nil {
		return Result{}, err
	}

	if err := checkWellFormed(series); err != nil {
		return Result{}, err
	}

	if len(series) == 0 {
		return Result{
			Status: StatusNoData,
			Series: nil,
			Reason: "no data available",
		}, nil
	}

	var warnings []string

	cleaned := series

	if cfg.DropPartial {
		last := cleaned[len(cleaned)-1]
		if now.Before(last.Time.Add(intervalDuration)) {
			cleaned = cleaned[:len(cleaned)-1]

			warnings = append(warnings, "dropped incomplete last candle")
		}
	}

	minBars := cfg.MinBarsFor(interval)
	if len(cleaned) < minBars {
		return Result{
			Status:   StatusInsufficientBars,
			Series:   cleaned,
			Reason:   fmt.Sprintf("only %d bars available, need %d", len(cleaned), minBars),
			Warnings: warnings,
		}, nil
	}

	largeGaps, minorGaps := detectGaps(cleaned, intervalDuration, cfg)

	if len(largeGaps) > 0 {
		examples := largeGaps
		if len(examples) > 3 {
			examples = examples[:3]
		}

		return Result{
			Status:   StatusBadDataGaps,
			Series:   cleaned,
			Reason:   fmt.Sprintf("data has significant gaps: %s", strings.Join(examples, "; ")),
			Warnings: append(warnings, largeGaps...),
		}, nil
	}

	warnings = append(warnings, minorGaps...)

	return Result{
		Status:   StatusOK,
		Series:   cleaned,
		Warnings: warnings,
	}, nil
}

// checkWellFormed rejects malformed series: non-monotonic or duplicate
// timestamps and non-numeric OHLCV fields.
func checkWellFormed(series types.CandleSeries) error {
	for i, bar := range series {
		if anyNaN(bar.Open, bar.High, bar.Low, bar.Close, bar.Volume) {
			return errors.Newf(errors.ErrCodeMissingOHLCVField,
				"bar at %s has a missing OHLCV value", bar.Time.UTC().Format(time.RFC3339))
		}

		if i > 0 && !series[i-1].Time.Before(bar.Time) {
			return errors.Newf(errors.ErrCodeNonMonotonicTimestamps,
				"timestamps not strictly increasing at %s", bar.Time.UTC().Format(time.RFC3339))
		}
	}

	return nil
}

// detectGaps scans consecutive timestamp deltas over the trailing lookback
// window. A delta above interval*MaxGapMultiplier is a large gap (fails the
// gate); a delta above the 5% jitter tolerance but below the multiplier is a
// minor gap (warning only, e.g. routine weekend closures).
func detectGaps(series types.CandleSeries, interval time.Duration, cfg Config) (large, minor []string) {
	if len(series) < 2 {
		return nil, nil
	}

	window := series
	if cfg.GapLookbackBars > 0 && len(window) > cfg.GapLookbackBars {
		window = window[len(window)-cfg.GapLookbackBars:]
	}

	tolerance := time.Duration(float64(interval) * 1.05)
	maxSingleGap := time.Duration(float64(interval) * cfg.MaxGapMultiplier)

	for i := 1; i < len(window); i++ {
		delta := window[i].Time.Sub(window[i-1].Time)
		if delta <= tolerance {
			continue
		}

		gapSize := float64(delta) / float64(interval)
		at := window[i].Time.UTC().Format(time.RFC3339)

		if delta > maxSingleGap {
			large = append(large, fmt.Sprintf("large gap at %s: %.1fx expected interval", at, gapSize))
		} else {
			minor = append(minor, fmt.Sprintf("gap at %s: %.1fx expected interval", at, gapSize))
		}
	}

	return large, minor
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}
