package indicator

// Multiplier returns the EMA smoothing factor 2/(period+1).
func Multiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

// EMA calculates an Exponential Moving Average over the whole series.
// The first value seeds the average, so the result has the same length as
// prices even when prices is shorter than period.
func EMA(prices []float64, period int) []float64 {
	if len(prices) == 0 || period < 1 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	multiplier := Multiplier(period)

	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}
