package indicator

import "math"

// CalculateBollingerBands returns the upper, middle and lower bands.
// All three slices are full length with zeros before the first complete
// window; callers index them in step with the close series.
func CalculateBollingerBands(closes []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	if len(closes) < period {
		return []float64{}, []float64{}, []float64{}
	}

	upper = make([]float64, len(closes))
	middle = make([]float64, len(closes))
	lower = make([]float64, len(closes))

	for i := period - 1; i < len(closes); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += closes[j]
		}
		sma := sum / float64(period)

		var variance float64
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - sma
			variance += diff * diff
		}
		band := stdDev * math.Sqrt(variance/float64(period))

		middle[i] = sma
		upper[i] = sma + band
		lower[i] = sma - band
	}

	return upper, middle, lower
}
