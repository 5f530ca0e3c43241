package indicator

import "math"

// TrueRange calculates the per-bar true range:
//
//	TR = max(high-low, |high-prevClose|, |low-prevClose|)
//
// The first bar has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(highs))
	for i := range highs {
		tr := highs[i] - lows[i]
		if i > 0 {
			prevClose := closes[i-1]
			tr = math.Max(tr, math.Max(
				math.Abs(highs[i]-prevClose),
				math.Abs(lows[i]-prevClose),
			))
		}

		out[i] = tr
	}

	return out
}

// WilderATR calculates the Average True Range using Wilder smoothing.
// The first value, at index `period`, is the simple mean of the true ranges
// at indices 1..period; earlier values are NaN (warmup).
func WilderATR(highs, lows, closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	tr := TrueRange(highs, lows, closes)

	var sum float64
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}

	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(closes); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}

	return out
}

// ATRPercent expresses ATR as a percentage of the close price,
// (ATR/close)*100, aligned per bar.
func ATRPercent(atr, closes []float64) []float64 {
	out := make([]float64, len(atr))
	for i := range atr {
		out[i] = (atr[i] / closes[i]) * 100
	}

	return out
}
