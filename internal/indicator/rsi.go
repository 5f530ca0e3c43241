package indicator

import "math"

// WilderRSI calculates the Relative Strength Index using Wilder smoothing.
//
// The first average gain/loss is the simple mean of the first `period`
// deltas; subsequent averages follow the Wilder update
//
//	avg[t] = (avg[t-1]*(period-1) + x[t]) / period
//
// which is an EMA with alpha = 1/period and no bias adjustment.
//
// Values before index `period` are NaN (warmup). When the average loss is
// exactly zero the RSI is 100; a zero average gain overrides to 0, so a
// perfectly flat series reads 0.
func WilderRSI(closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	rsi := math.NaN()
	if avgLoss > 0 {
		rs := avgGain / avgLoss
		rsi = 100 - (100 / (1 + rs))
	}

	// Zero-average overrides, applied in this order so an all-flat series
	// (both averages zero) reads 0, not 100.
	if avgLoss == 0 {
		rsi = 100
	}

	if avgGain == 0 {
		rsi = 0
	}

	return rsi
}
