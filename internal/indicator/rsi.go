package indicator

import "math"

// rsiEpsilon treats an average loss this small as zero, which pins the
// RSI at 100 instead of blowing up the ratio
const rsiEpsilon = 1e-10

// CalculateRSI returns the Wilder-smoothed Relative Strength Index.
// The slice is full length and aligned with closes; the first valid
// value sits at index period.
func CalculateRSI(closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return []float64{}
	}

	rsi := make([]float64, len(closes))
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rsi[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		rsi[i+1] = rsiFromAverages(avgGain, avgLoss)
	}

	return rsi
}

// GetLastRSI returns the most recent RSI value, or 0 when the history
// is shorter than the warm-up window
func GetLastRSI(closes []float64, period int) float64 {
	rsi := CalculateRSI(closes, period)
	if len(rsi) == 0 {
		return 0
	}
	return rsi[len(rsi)-1]
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss < rsiEpsilon {
		return 100
	}
	rs := avgGain / avgLoss
	return math.Max(0, math.Min(100, 100-(100/(1+rs))))
}
