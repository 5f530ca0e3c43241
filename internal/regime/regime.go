// Package regime classifies the current volatility and trend state of a
// candle series from its indicator history.
//
// Both detectors return optional.None when the data cannot support a
// classification; callers must treat that as "not evaluated", never as a
// default regime.
package regime

import (
	"math"

	"github.com/moznion/go-optional"
)

// VolatilityRegime is a percentile-based classification of ATR%.
type VolatilityRegime string

const (
	VolatilityPanic  VolatilityRegime = "PANIC"  // >= 90th percentile, dangerous
	VolatilityHigh   VolatilityRegime = "HIGH"   // 70-90th percentile
	VolatilityNormal VolatilityRegime = "NORMAL" // 20-70th percentile
	VolatilityLow    VolatilityRegime = "LOW"    // 10-20th percentile
	VolatilityDead   VolatilityRegime = "DEAD"   // <= 10th percentile, no volatility
)

// TrendRegime is a slope/price-position classification relative to EMA200.
type TrendRegime string

const (
	TrendStrongDowntrend TrendRegime = "STRONG_DOWNTREND"
	TrendDowntrend       TrendRegime = "DOWNTREND"
	TrendNeutral         TrendRegime = "NEUTRAL"
	TrendUptrend         TrendRegime = "UPTREND"
	TrendStrongUptrend   TrendRegime = "STRONG_UPTREND"
)

// VolatilityResult is a point-in-time volatility classification.
type VolatilityResult struct {
	Regime     VolatilityRegime
	ATRPercent float64 // current ATR as % of price
	Percentile float64 // percentile rank of current ATR% in the trailing window
}

// IsPanic reports whether the regime is PANIC.
func (r VolatilityResult) IsPanic() bool {
	return r.Regime == VolatilityPanic
}

// TrendResult is a point-in-time trend classification.
type TrendResult struct {
	Regime        TrendRegime
	EMA200        float64
	EMA200Slope   float64 // EMA200 change over the slope lookback
	PriceVsEMA200 float64 // (close - EMA200) / ATR
}

// IsStrongDowntrend reports whether the regime is STRONG_DOWNTREND.
func (r TrendResult) IsStrongDowntrend() bool {
	return r.Regime == TrendStrongDowntrend
}

// VolatilityConfig holds the volatility detector thresholds.
type VolatilityConfig struct {
	PanicPercentile float64
	DeadPercentile  float64
	LookbackBars    int
}

// DefaultVolatilityConfig returns the standard volatility thresholds.
func DefaultVolatilityConfig() VolatilityConfig {
	return VolatilityConfig{
		PanicPercentile: 90,
		DeadPercentile:  20,
		LookbackBars:    200,
	}
}

// TrendConfig holds the trend detector thresholds.
type TrendConfig struct {
	SlopeLookback           int
	StrongTrendATRThreshold float64
}

// DefaultTrendConfig returns the standard trend thresholds.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		SlopeLookback:           20,
		StrongTrendATRThreshold: 1.0,
	}
}

// DetectVolatility classifies the current volatility regime from the ATR%
// percentile over the trailing window. The percentile is the fraction of the
// window strictly below the current ATR%. Requires at least LookbackBars ATR
// observations with at least half of the trailing window defined.
func DetectVolatility(atr, closes []float64, cfg VolatilityConfig) optional.Option[VolatilityResult] {
	none := optional.None[VolatilityResult]()

	if len(atr) < cfg.LookbackBars || len(atr) != len(closes) {
		return none
	}

	if math.IsNaN(atr[len(atr)-1]) {
		return none
	}

	atrPct := make([]float64, len(atr))
	for i := range atr {
		atrPct[i] = (atr[i] / closes[i]) * 100
	}

	current := atrPct[len(atrPct)-1]
	if math.IsNaN(current) {
		return none
	}

	window := atrPct[len(atrPct)-cfg.LookbackBars:]

	var defined, below int

	for _, v := range window {
		if math.IsNaN(v) {
			continue
		}

		defined++

		if v < current {
			below++
		}
	}

	if defined < cfg.LookbackBars/2 {
		return none
	}

	percentile := float64(below) / float64(defined) * 100

	var reg VolatilityRegime

	switch {
	case percentile >= cfg.PanicPercentile:
		reg = VolatilityPanic
	case percentile >= 70:
		reg = VolatilityHigh
	case percentile <= 10:
		reg = VolatilityDead
	case percentile <= cfg.DeadPercentile:
		reg = VolatilityLow
	default:
		reg = VolatilityNormal
	}

	return optional.Some(VolatilityResult{
		Regime:     reg,
		ATRPercent: current,
		Percentile: percentile,
	})
}

// DetectTrend classifies the current trend regime from the ATR-normalized
// EMA200 slope and the price distance from EMA200. Requires SlopeLookback+1
// EMA200 values and a positive current ATR.
func DetectTrend(closes, ema200, atr []float64, cfg TrendConfig) optional.Option[TrendResult] {
	none := optional.None[TrendResult]()

	if len(ema200) < cfg.SlopeLookback+1 || len(closes) != len(ema200) || len(atr) != len(ema200) {
		return none
	}

	last := len(ema200) - 1
	currentClose := closes[last]
	currentEMA := ema200[last]
	currentATR := atr[last]

	if math.IsNaN(currentClose) || math.IsNaN(currentEMA) || math.IsNaN(currentATR) {
		return none
	}

	if currentATR <= 0 {
		return none
	}

	prevEMA := ema200[last-cfg.SlopeLookback]
	if math.IsNaN(prevEMA) {
		return none
	}

	slope := currentEMA - prevEMA
	slopeNormalized := slope / currentATR
	priceVsEMA := (currentClose - currentEMA) / currentATR

	slopeDown := slopeNormalized < -0.5
	slopeUp := slopeNormalized > 0.5
	priceFarBelow := priceVsEMA < -cfg.StrongTrendATRThreshold
	priceFarAbove := priceVsEMA > cfg.StrongTrendATRThreshold

	var reg TrendRegime

	switch {
	case slopeDown && priceFarBelow:
		reg = TrendStrongDowntrend
	case slopeUp && priceFarAbove:
		reg = TrendStrongUptrend
	case slopeDown || currentClose < currentEMA:
		reg = TrendDowntrend
	case slopeUp || currentClose > currentEMA:
		reg = TrendUptrend
	default:
		reg = TrendNeutral
	}

	return optional.Some(TrendResult{
		Regime:        reg,
		EMA200:        currentEMA,
		EMA200Slope:   slope,
		PriceVsEMA200: priceVsEMA,
	})
}
