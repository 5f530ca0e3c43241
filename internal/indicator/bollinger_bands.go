package indicator

import "math"

// Bollinger calculates Bollinger Bands: a rolling simple moving average
// (middle band) plus/minus stdDev multiples of the rolling population
// standard deviation. Indices before period-1 are NaN (window incomplete).
func Bollinger(closes []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	upper = nans(len(closes))
	middle = nans(len(closes))
	lower = nans(len(closes))

	if period <= 0 || len(closes) < period {
		return upper, middle, lower
	}

	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]

		var sum float64
		for _, v := range window {
			sum += v
		}

		mean := sum / float64(period)

		var squaredDiffSum float64
		for _, v := range window {
			diff := v - mean
			squaredDiffSum += diff * diff
		}

		sd := math.Sqrt(squaredDiffSum / float64(period))

		middle[i] = mean
		upper[i] = mean + stdDev*sd
		lower[i] = mean - stdDev*sd
	}

	return upper, middle, lower
}
