// Package setup evaluates the mean-reversion Bollinger-reclaim setup.
//
// Each call is a fresh evaluation, not a persistent state machine: the
// result moves from NOT_EVALUATED through the data checks into either
// EVALUATED_NO_SETUP or SETUP_TRIGGERED and no further.
package setup

import (
	"fmt"
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantmill/reversal/internal/indicator"
	"github.com/quantmill/reversal/internal/regime"
	"github.com/quantmill/reversal/internal/types"
)

// Config holds the setup trigger thresholds and scoring weights.
type Config struct {
	RSIThreshold      float64
	LookbackOvershoot int
	EntryZonePct      float64

	// Scoring weights
	BaseScore        int
	StrongRSIBonus   int
	LowVolBonus      int
	GoodTrendBonus   int
	LowVolumePenalty int

	// Invalidation level
	InvalidationLookback  int
	InvalidationATRBuffer float64

	// HoldWindows maps timeframes to suggested hold windows.
	HoldWindows map[types.Interval]string

	Volatility regime.VolatilityConfig
	Trend      regime.TrendConfig
}

// DefaultConfig returns the standard setup thresholds.
func DefaultConfig() Config {
	return Config{
		RSIThreshold:      35,
		LookbackOvershoot: 5,
		EntryZonePct:      0.5,

		BaseScore:        60,
		StrongRSIBonus:   15,
		LowVolBonus:      10,
		GoodTrendBonus:   10,
		LowVolumePenalty: 15,

		InvalidationLookback:  10,
		InvalidationATRBuffer: 0.5,

		HoldWindows: map[types.Interval]string{
			types.Interval1h: "6-24h",
			types.Interval4h: "1-3d",
			types.Interval1d: "3-7d",
		},

		Volatility: regime.DefaultVolatilityConfig(),
		Trend:      regime.DefaultTrendConfig(),
	}
}

const defaultHoldWindow = "6-24h"

// Evaluate runs the MEAN_REVERSION_BB_RECLAIM evaluation on a gated candle
// series and its indicators.
//
// Returns NOT_EVALUATED when data or warmup prevents evaluation,
// EVALUATED_NO_SETUP when conditions are not met, and SETUP_TRIGGERED with
// a scored alert when the setup fires.
func Evaluate(series types.CandleSeries, ind indicator.Set, symbol string, timeframe types.Interval, evalTime time.Time, cfg Config) types.SetupResult {
	minRequired := max(cfg.Volatility.LookbackBars, cfg.Trend.SlopeLookback, 50)
	if len(series) < minRequired {
		return types.NotEvaluated(fmt.Sprintf("insufficient bars: %d < %d", len(series), minRequired))
	}

	// Both of the last two bars must have fully warmed indicators.
	for _, offset := range []int{1, 2} {
		idx := len(series) - offset
		if anyNaNAt(idx, ind.RSI, ind.ATR, ind.EMA200, ind.BBLower, ind.BBMiddle, ind.BBUpper) {
			return types.NotEvaluated("critical indicator values are NaN (warmup incomplete)")
		}
	}

	closes := series.Closes()
	last := len(series) - 1

	currentClose := closes[last]
	currentATR := ind.ATR[last]
	currentVolume := series[last].Volume

	volumeSMA := math.NaN()
	if len(ind.VolumeSMA) > 0 {
		volumeSMA = ind.VolumeSMA[len(ind.VolumeSMA)-1]
	}

	atrPct := math.NaN()
	if currentClose > 0 {
		atrPct = (currentATR / currentClose) * 100
	}

	volRegimeOpt := regime.DetectVolatility(ind.ATR, closes, cfg.Volatility)
	trendRegimeOpt := regime.DetectTrend(closes, ind.EMA200, ind.ATR, cfg.Trend)

	if volRegimeOpt.IsNone() || trendRegimeOpt.IsNone() {
		return types.NotEvaluated("could not compute regime (insufficient data)")
	}

	volRegime := volRegimeOpt.Unwrap()
	trendRegime := trendRegimeOpt.Unwrap()

	// Primary trigger: Bollinger lower band reclaim.
	hasOvershoot, isReclaim, _ := CheckBBReclaim(closes, ind.BBLower, cfg.LookbackOvershoot)

	if !hasOvershoot {
		return types.NoSetup("no BB overshoot in lookback period")
	}

	if !isReclaim {
		return types.NoSetup("BB overshoot exists but no reclaim yet")
	}

	// RSI cross is a soft confirmation: it never blocks, it only scores.
	rsiCross, rsiNow, rsiPrev := CheckRSICrossUp(ind.RSI, cfg.RSIThreshold)

	if volRegime.IsPanic() {
		return types.NoSetup(fmt.Sprintf("volatility regime is PANIC (ATR%% at %.0fth percentile)", volRegime.Percentile))
	}

	if trendRegime.IsStrongDowntrend() {
		return types.NoSetup(fmt.Sprintf("trend regime is STRONG_DOWNTREND (price %.1f ATR below EMA200)", trendRegime.PriceVsEMA200))
	}

	score := cfg.BaseScore

	evidence := []string{"BB reclaim: prior close below lower band, now closed back inside"}

	if rsiCross {
		evidence = append(evidence, fmt.Sprintf("RSI cross up: %.1f -> %.1f above %g", rsiPrev, rsiNow, cfg.RSIThreshold))

		if rsiNow >= cfg.RSIThreshold+5 {
			score += cfg.StrongRSIBonus
		}
	} else if rsiNow < 40 {
		evidence = append(evidence, fmt.Sprintf("RSI oversold at %.1f", rsiNow))
	}

	if volRegime.Percentile < 70 {
		score += cfg.LowVolBonus

		evidence = append(evidence, fmt.Sprintf("Vol regime: %s (%.0fth pctl)", volRegime.Regime, volRegime.Percentile))
	} else {
		evidence = append(evidence, fmt.Sprintf("Vol regime: %s", volRegime.Regime))
	}

	if trendRegime.PriceVsEMA200 >= -0.5 {
		score += cfg.GoodTrendBonus
	}

	evidence = append(evidence, fmt.Sprintf("Trend regime: %s", trendRegime.Regime))

	// Soft volume penalty.
	if !math.IsNaN(volumeSMA) && volumeSMA > 0 {
		if currentVolume/volumeSMA < 0.7 {
			score -= cfg.LowVolumePenalty
		}
	}

	score = min(100, max(0, score))

	if len(evidence) > 3 {
		evidence = evidence[:3]
	}

	invalidation := CalculateInvalidation(series.Lows(), currentATR, cfg.InvalidationLookback, cfg.InvalidationATRBuffer)
	if math.IsNaN(invalidation) {
		invalidation = 0
	}

	holdWindow, ok := cfg.HoldWindows[timeframe]
	if !ok {
		holdWindow = defaultHoldWindow
	}

	alert := types.Alert{
		Setup:     types.SetupMeanReversionBBReclaim,
		Symbol:    symbol,
		Timeframe: timeframe,
		Time:      evalTime,
		Direction: types.DirectionLong,

		TriggerClose: currentClose,
		EntryZone: types.EntryZone{
			Low:  currentClose * (1 - cfg.EntryZonePct/100),
			High: currentClose * (1 + cfg.EntryZonePct/100),
		},
		Invalidation: invalidation,
		HoldWindow:   holdWindow,

		Score:    score,
		Evidence: evidence,

		RSI:         rsiNow,
		RSIPrev:     rsiPrev,
		ATR:         currentATR,
		ATRPercent:  nanToZero(atrPct),
		EMA200:      ind.EMA200[last],
		EMA200Slope: trendRegime.EMA200Slope,
		BBLower:     ind.BBLower[last],
		BBMiddle:    ind.BBMiddle[last],
		BBUpper:     ind.BBUpper[last],

		VolRegime:   string(volRegime.Regime),
		TrendRegime: string(trendRegime.Regime),
	}

	return types.Triggered(alert)
}

// CheckBBReclaim checks for a lower Bollinger Band reclaim.
//
// Overshoot: a close below the lower band within the last lookback bars
// (scanned back from the previous bar). Reclaim: the previous close was
// below its band and the current close is at or above its band. The two
// checks are intentionally independent; an overshoot several bars back
// combined with a last-two-bars reclaim satisfies both.
func CheckBBReclaim(closes, bbLower []float64, lookbackOvershoot int) (hasOvershoot, isReclaim bool, overshootBarsAgo optional.Option[int]) {
	none := optional.None[int]()

	if len(closes) < lookbackOvershoot+1 || len(closes) != len(bbLower) || len(closes) < 2 {
		return false, false, none
	}

	last := len(closes) - 1
	currentClose := closes[last]
	prevClose := closes[last-1]
	currentLower := bbLower[last]
	prevLower := bbLower[last-1]

	if anyNaN(currentClose, prevClose, currentLower, prevLower) {
		return false, false, none
	}

	for i := 1; i <= lookbackOvershoot; i++ {
		idx := last - i
		if idx < 0 {
			break
		}

		if math.IsNaN(closes[idx]) || math.IsNaN(bbLower[idx]) {
			continue
		}

		if closes[idx] < bbLower[idx] {
			hasOvershoot = true
			overshootBarsAgo = optional.Some(i)

			break
		}
	}

	if prevClose < prevLower {
		hasOvershoot = true
		overshootBarsAgo = optional.Some(1)
	}

	isReclaim = prevClose < prevLower && currentClose >= currentLower

	return hasOvershoot, isReclaim, overshootBarsAgo
}

// CheckRSICrossUp checks whether RSI crossed up through the threshold
// between the last two bars.
func CheckRSICrossUp(rsi []float64, threshold float64) (crossUp bool, rsiCurrent, rsiPrev float64) {
	if len(rsi) < 2 {
		return false, math.NaN(), math.NaN()
	}

	rsiCurrent = rsi[len(rsi)-1]
	rsiPrev = rsi[len(rsi)-2]

	if math.IsNaN(rsiCurrent) || math.IsNaN(rsiPrev) {
		return false, math.NaN(), math.NaN()
	}

	crossUp = rsiPrev < threshold && rsiCurrent >= threshold

	return crossUp, rsiCurrent, rsiPrev
}

// CalculateInvalidation returns the invalidation level: the swing low over
// the trailing lookback minus an ATR buffer.
func CalculateInvalidation(lows []float64, atr float64, lookback int, bufferMultiplier float64) float64 {
	if len(lows) == 0 || math.IsNaN(atr) {
		return math.NaN()
	}

	window := lows
	if len(window) > lookback {
		window = window[len(window)-lookback:]
	}

	swingLow := math.NaN()
	for _, v := range window {
		if math.IsNaN(v) {
			continue
		}

		if math.IsNaN(swingLow) || v < swingLow {
			swingLow = v
		}
	}

	if math.IsNaN(swingLow) {
		return math.NaN()
	}

	return swingLow - bufferMultiplier*atr
}

func anyNaNAt(idx int, series ...[]float64) bool {
	for _, s := range series {
		if idx < 0 || idx >= len(s) {
			continue
		}

		if math.IsNaN(s[idx]) {
			return true
		}
	}

	return false
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}

	return false
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return v
}
