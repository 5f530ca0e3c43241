package regime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegimeTestSuite struct {
	suite.Suite
}

func TestRegimeSuite(t *testing.T) {
	suite.Run(t, new(RegimeTestSuite))
}

// constantSeries returns n copies of v.
func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}

func (suite *RegimeTestSuite) TestVolatilityTooFewBars() {
	cfg := DefaultVolatilityConfig()

	atr := constantSeries(100, 2)
	closes := constantSeries(100, 100)

	suite.True(DetectVolatility(atr, closes, cfg).IsNone())
}

func (suite *RegimeTestSuite) TestVolatilityPanicWhenCurrentIsHighest() {
	cfg := DefaultVolatilityConfig()

	atr := constantSeries(200, 1)
	closes := constantSeries(200, 100)
	atr[199] = 10

	result := DetectVolatility(atr, closes, cfg)
	suite.Require().True(result.IsSome())

	vol := result.Unwrap()
	suite.Equal(VolatilityPanic, vol.Regime)
	suite.True(vol.IsPanic())
	suite.InDelta(10.0, vol.ATRPercent, 1e-9)
	// 199 of 200 window values sit strictly below the current one.
	suite.InDelta(99.5, vol.Percentile, 1e-9)
}

func (suite *RegimeTestSuite) TestVolatilityDeadWhenCurrentIsLowest() {
	cfg := DefaultVolatilityConfig()

	atr := constantSeries(200, 5)
	closes := constantSeries(200, 100)
	atr[199] = 0.5

	result := DetectVolatility(atr, closes, cfg)
	suite.Require().True(result.IsSome())

	vol := result.Unwrap()
	suite.Equal(VolatilityDead, vol.Regime)
	suite.InDelta(0.0, vol.Percentile, 1e-9)
}

func (suite *RegimeTestSuite) TestVolatilityFlatWindowIsNormal() {
	cfg := DefaultVolatilityConfig()

	// Every value equals the current one: nothing strictly below it.
	atr := constantSeries(200, 2)
	closes := constantSeries(200, 100)

	result := DetectVolatility(atr, closes, cfg)
	suite.Require().True(result.IsSome())

	// Percentile 0 with a uniform window classifies as DEAD by construction.
	suite.Equal(VolatilityDead, result.Unwrap().Regime)
}

func (suite *RegimeTestSuite) TestVolatilityRequiresHalfDefinedWindow() {
	cfg := DefaultVolatilityConfig()

	atr := constantSeries(200, 2)
	closes := constantSeries(200, 100)

	// Leave fewer than lookback/2 defined values in the window.
	for i := 0; i < 150; i++ {
		atr[i] = math.NaN()
	}

	suite.True(DetectVolatility(atr, closes, cfg).IsNone())
}

func (suite *RegimeTestSuite) TestVolatilityNaNCurrentIsNone() {
	cfg := DefaultVolatilityConfig()

	atr := constantSeries(200, 2)
	closes := constantSeries(200, 100)
	atr[199] = math.NaN()

	suite.True(DetectVolatility(atr, closes, cfg).IsNone())
}

func (suite *RegimeTestSuite) TestTrendStrongDowntrend() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 90)
	atr := constantSeries(n, 2)

	// EMA200 falling by 0.2/bar: slope over 20 bars = -4, normalized -2.
	ema := make([]float64, n)
	for i := range ema {
		ema[i] = 100 - 0.2*float64(i)
	}

	// Price 1.2 ATR below the EMA end value.
	closes[n-1] = ema[n-1] - 2.4

	result := DetectTrend(closes, ema, atr, cfg)
	suite.Require().True(result.IsSome())

	trend := result.Unwrap()
	suite.Equal(TrendStrongDowntrend, trend.Regime)
	suite.True(trend.IsStrongDowntrend())
	suite.InDelta(-4.0, trend.EMA200Slope, 1e-9)
	suite.InDelta(-1.2, trend.PriceVsEMA200, 1e-9)
}

func (suite *RegimeTestSuite) TestTrendStrongUptrend() {
	cfg := DefaultTrendConfig()

	n := 50
	atr := constantSeries(n, 2)

	ema := make([]float64, n)
	for i := range ema {
		ema[i] = 100 + 0.2*float64(i)
	}

	closes := constantSeries(n, 0)
	closes[n-1] = ema[n-1] + 3

	result := DetectTrend(closes, ema, atr, cfg)
	suite.Require().True(result.IsSome())
	suite.Equal(TrendStrongUptrend, result.Unwrap().Regime)
}

func (suite *RegimeTestSuite) TestTrendDowntrendWhenPriceBelowFlatEMA() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 99)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 2)

	result := DetectTrend(closes, ema, atr, cfg)
	suite.Require().True(result.IsSome())
	suite.Equal(TrendDowntrend, result.Unwrap().Regime)
}

func (suite *RegimeTestSuite) TestTrendUptrendWhenPriceAboveFlatEMA() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 101)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 2)

	result := DetectTrend(closes, ema, atr, cfg)
	suite.Require().True(result.IsSome())
	suite.Equal(TrendUptrend, result.Unwrap().Regime)
}

func (suite *RegimeTestSuite) TestTrendNeutralWhenPriceOnFlatEMA() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 100)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 2)

	result := DetectTrend(closes, ema, atr, cfg)
	suite.Require().True(result.IsSome())
	suite.Equal(TrendNeutral, result.Unwrap().Regime)
}

func (suite *RegimeTestSuite) TestTrendNoneOnZeroATR() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 100)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 0)

	suite.True(DetectTrend(closes, ema, atr, cfg).IsNone())
}

func (suite *RegimeTestSuite) TestTrendNoneOnShortSeries() {
	cfg := DefaultTrendConfig()

	n := cfg.SlopeLookback
	closes := constantSeries(n, 100)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 2)

	suite.True(DetectTrend(closes, ema, atr, cfg).IsNone())
}

func (suite *RegimeTestSuite) TestTrendNoneOnNaNSlopeBase() {
	cfg := DefaultTrendConfig()

	n := 50
	closes := constantSeries(n, 100)
	ema := constantSeries(n, 100)
	atr := constantSeries(n, 2)

	ema[n-1-cfg.SlopeLookback] = math.NaN()

	suite.True(DetectTrend(closes, ema, atr, cfg).IsNone())
}
