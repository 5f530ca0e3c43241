package types

import (
	"time"

	"github.com/quantmill/reversal/pkg/errors"
)

// Interval represents a candle interval (bar duration).
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

var intervalMinutes = map[Interval]int{
	Interval1m:  1,
	Interval5m:  5,
	Interval15m: 15,
	Interval30m: 30,
	Interval1h:  60,
	Interval4h:  240,
	Interval1d:  1440,
}

// Minutes returns the interval duration in minutes.
// Unknown intervals are an error, not a default.
func (i Interval) Minutes() (int, error) {
	minutes, ok := intervalMinutes[i]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unknown interval: %s", i)
	}

	return minutes, nil
}

// MinutesOrDefault returns the interval duration in minutes, falling back
// to the given default for unknown intervals.
func (i Interval) MinutesOrDefault(fallback int) int {
	if minutes, ok := intervalMinutes[i]; ok {
		return minutes
	}

	return fallback
}

// Duration returns the interval as a time.Duration.
func (i Interval) Duration() (time.Duration, error) {
	minutes, err := i.Minutes()
	if err != nil {
		return 0, err
	}

	return time.Duration(minutes) * time.Minute, nil
}

// MarketData represents a single OHLCV bar. Time is the candle open time in UTC.
type MarketData struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleSeries is an ordered sequence of bars for one (symbol, interval) pair.
// Timestamps are strictly increasing and unique. Functions operating on a
// series never mutate it in place; they return derived slices.
type CandleSeries []MarketData

// Closes returns the close prices as a fresh slice.
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Close
	}

	return out
}

// Highs returns the high prices as a fresh slice.
func (s CandleSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.High
	}

	return out
}

// Lows returns the low prices as a fresh slice.
func (s CandleSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Low
	}

	return out
}

// Volumes returns the volumes as a fresh slice.
func (s CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Volume
	}

	return out
}

// Last returns the most recent bar. The second return value is false for an
// empty series.
func (s CandleSeries) Last() (MarketData, bool) {
	if len(s) == 0 {
		return MarketData{}, false
	}

	return s[len(s)-1], true
}
