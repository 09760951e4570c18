package indicator

// CalculateMACD returns the MACD line, signal line and histogram. The
// MACD line is full length and aligned with closes; the signal and
// histogram start at the slow period, so signal[i] pairs with
// macd[slowPeriod-1+i].
func CalculateMACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal, histogram []float64) {
	if len(closes) < slowPeriod {
		return []float64{}, []float64{}, []float64{}
	}

	fastEMA := CalculateEMA(closes, fastPeriod)
	slowEMA := CalculateEMA(closes, slowPeriod)

	macdLine := make([]float64, len(closes))
	for i := slowPeriod - 1; i < len(closes); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := CalculateEMA(macdLine[slowPeriod-1:], signalPeriod)

	histogramLine := make([]float64, len(signalLine))
	for i := range signalLine {
		histogramLine[i] = macdLine[slowPeriod-1+i] - signalLine[i]
	}

	return macdLine, signalLine, histogramLine
}
