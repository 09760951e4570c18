package indicator

import (
	"math"

	"tradex-go/internal/model"
)

// CalculateATR calculates the Average True Range as a series aligned with bars
func CalculateATR(bars []model.Bar, period int) []float64 {
	if len(bars) < period+1 {
		return []float64{}
	}

	trValues := make([]float64, len(bars))

	// Calculate TR (True Range) for each candle
	for i := 1; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i-1].Close

		tr1 := high - low
		tr2 := math.Abs(high - prevClose)
		tr3 := math.Abs(low - prevClose)

		trValues[i] = math.Max(tr1, math.Max(tr2, tr3))
	}

	atr := make([]float64, len(bars))

	// First ATR is simple average of TR for the period
	sumTR := 0.0
	for i := 1; i <= period; i++ {
		sumTR += trValues[i]
	}
	atr[period] = sumTR / float64(period)

	// Subsequent ATRs using smoothing: ATR = ((Prior ATR * (n-1)) + Current TR) / n
	for i := period + 1; i < len(bars); i++ {
		atr[i] = ((atr[i-1] * float64(period-1)) + trValues[i]) / float64(period)
	}

	return atr
}

// GetLastATR returns the most recent ATR value
func GetLastATR(bars []model.Bar, period int) float64 {
	atr := CalculateATR(bars, period)
	if len(atr) == 0 {
		return 0
	}
	return atr[len(atr)-1]
}
