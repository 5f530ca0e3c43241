package indicator

// SMA calculates a rolling simple moving average. Indices before period-1
// are NaN (window incomplete). NaN inputs inside a window propagate, so a
// warming series (e.g. smoothing ATR) stays undefined until the window is
// fully defined.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		var sum float64
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}

		out[i] = sum / float64(period)
	}

	return out
}
