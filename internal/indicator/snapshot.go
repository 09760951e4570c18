package indicator

import "tradex-go/internal/model"

// Standard periods used across the bot
const (
	PeriodSMAFast    = 5
	PeriodSMAMid     = 20
	PeriodSMASlow    = 50
	PeriodEMAFast    = 9
	PeriodEMASlow    = 21
	PeriodRSI        = 14
	PeriodMACDFast   = 12
	PeriodMACDSlow   = 26
	PeriodMACDSignal = 9
	PeriodBollinger  = 20
	PeriodATR        = 14
	PeriodVolumeSMA  = 20

	BollingerStdDev = 2.0

	// MinBars is the minimum history length before any signal evaluation
	MinBars = 30
)

// BuildSeries computes every indicator over the bar history and assembles
// one snapshot per bar. Values inside an indicator's warm-up window stay nil.
func BuildSeries(bars []model.Bar) []model.IndicatorSnapshot {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	sma5 := CalculateSMA(closes, PeriodSMAFast)
	sma20 := CalculateSMA(closes, PeriodSMAMid)
	sma50 := CalculateSMA(closes, PeriodSMASlow)
	ema9 := CalculateEMA(closes, PeriodEMAFast)
	ema21 := CalculateEMA(closes, PeriodEMASlow)
	rsi := CalculateRSI(closes, PeriodRSI)
	macdLine, signalLine, histLine := CalculateMACD(closes, PeriodMACDFast, PeriodMACDSlow, PeriodMACDSignal)
	bbUpper, bbMiddle, bbLower := CalculateBollingerBands(closes, PeriodBollinger, BollingerStdDev)
	atr := CalculateATR(bars, PeriodATR)
	volSMA := CalculateVolumeSMA(volumes, PeriodVolumeSMA)

	snaps := make([]model.IndicatorSnapshot, n)
	for i := 0; i < n; i++ {
		s := model.IndicatorSnapshot{
			Close:  closes[i],
			Volume: volumes[i],
		}
		s.SMA5 = pick(sma5, i, PeriodSMAFast-1)
		s.SMA20 = pick(sma20, i, PeriodSMAMid-1)
		s.SMA50 = pick(sma50, i, PeriodSMASlow-1)
		s.EMA9 = pick(ema9, i, PeriodEMAFast-1)
		s.EMA21 = pick(ema21, i, PeriodEMASlow-1)
		s.RSI = pick(rsi, i, PeriodRSI)
		s.MACD = pick(macdLine, i, PeriodMACDSlow-1)
		s.BBUpper = pick(bbUpper, i, PeriodBollinger-1)
		s.BBMiddle = pick(bbMiddle, i, PeriodBollinger-1)
		s.BBLower = pick(bbLower, i, PeriodBollinger-1)
		s.ATR = pick(atr, i, PeriodATR)
		s.VolumeSMA = pick(volSMA, i, PeriodVolumeSMA-1)

		// Signal and histogram series start at the slow EMA boundary
		sigStart := PeriodMACDSlow - 1
		if j := i - sigStart; j >= PeriodMACDSignal-1 && j < len(signalLine) {
			s.MACDSig = ptr(signalLine[j])
			s.MACDHist = ptr(histLine[j])
		}

		snaps[i] = s
	}
	return snaps
}

// LastTwo returns the latest and previous snapshots for the history,
// or ok=false when fewer than MinBars bars are available.
func LastTwo(bars []model.Bar) (latest, previous model.IndicatorSnapshot, ok bool) {
	if len(bars) < MinBars {
		return model.IndicatorSnapshot{}, model.IndicatorSnapshot{}, false
	}
	snaps := BuildSeries(bars)
	return snaps[len(snaps)-1], snaps[len(snaps)-2], true
}

// pick returns a pointer to series[i] when the index has cleared the
// warm-up boundary, nil otherwise
func pick(series []float64, i, firstValid int) *float64 {
	if len(series) == 0 || i < firstValid || i >= len(series) {
		return nil
	}
	return ptr(series[i])
}

func ptr(v float64) *float64 { return &v }
