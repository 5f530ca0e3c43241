// Package indicator provides pure, warmup-aware technical indicator
// calculations over price and volume slices.
//
// Every function allocates a fresh output slice aligned with its input and
// marks the warmup region with NaN instead of returning an error: callers
// decide whether an undefined value matters. Invalid periods (<= 0) yield a
// fully undefined series for the same reason.
package indicator

import (
	"math"

	"github.com/quantmill/reversal/internal/types"
)

// SetConfig holds the periods used when computing a full IndicatorSet.
type SetConfig struct {
	RSIPeriod       int
	ATRPeriod       int
	EMAShort        int
	EMAMedium       int
	EMALong         int
	BollingerPeriod int
	BollingerStdDev float64
	VolumeSMAPeriod int
	ATRSMAPeriod    int
}

// DefaultSetConfig returns the standard indicator periods.
func DefaultSetConfig() SetConfig {
	return SetConfig{
		RSIPeriod:       14,
		ATRPeriod:       14,
		EMAShort:        20,
		EMAMedium:       50,
		EMALong:         200,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		VolumeSMAPeriod: 20,
		ATRSMAPeriod:    20,
	}
}

// Set holds per-bar aligned indicator series for a candle series. Warmup
// regions are NaN.
type Set struct {
	RSI        []float64
	ATR        []float64
	ATRPercent []float64
	ATRSMA     []float64
	EMA20      []float64
	EMA50      []float64
	EMA200     []float64
	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	VolumeSMA  []float64
}

// ComputeSet calculates all indicators used by the setup evaluator for the
// given series.
func ComputeSet(series types.CandleSeries, cfg SetConfig) Set {
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	atr := WilderATR(highs, lows, closes, cfg.ATRPeriod)
	upper, middle, lower := Bollinger(closes, cfg.BollingerPeriod, cfg.BollingerStdDev)

	return Set{
		RSI:        WilderRSI(closes, cfg.RSIPeriod),
		ATR:        atr,
		ATRPercent: ATRPercent(atr, closes),
		ATRSMA:     SMA(atr, cfg.ATRSMAPeriod),
		EMA20:      EMA(closes, cfg.EMAShort),
		EMA50:      EMA(closes, cfg.EMAMedium),
		EMA200:     EMA(closes, cfg.EMALong),
		BBUpper:    upper,
		BBMiddle:   middle,
		BBLower:    lower,
		VolumeSMA:  SMA(volumes, cfg.VolumeSMAPeriod),
	}
}

// nans returns a slice of length n filled with NaN.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
