package indicator

// EMA calculates the exponential moving average with alpha = 2/(period+1)
// and no bias adjustment, seeded with the first value. The result is defined
// from index 0; an EMA has no hard warmup cutoff, early values are simply
// dominated by the seed.
func EMA(values []float64, period int) []float64 {
	if period <= 0 {
		return nans(len(values))
	}

	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)

	ema := values[0]
	out[0] = ema

	for i := 1; i < len(values); i++ {
		ema = values[i]*alpha + ema*(1-alpha)
		out[i] = ema
	}

	return out
}
