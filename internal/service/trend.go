package service

import (
	"log"

	"tradex-go/internal/indicator"
	"tradex-go/internal/model"
)

// TrendService classifies the market regime for a symbol from two
// independent timeframes: daily structure and hourly momentum.
type TrendService struct {
	data *MarketDataService
}

func NewTrendService(data *MarketDataService) *TrendService {
	return &TrendService{data: data}
}

// Analyze fetches both timeframes and returns the combined trend label.
// A failed or short timeframe degrades to NEUTRAL for that timeframe
// instead of failing the whole classification.
func (t *TrendService) Analyze(symbol string) model.TrendLabel {
	daily := model.TimeframeNeutral
	hourly := model.TimeframeNeutral

	if bars, err := t.data.FetchDaily(symbol); err != nil {
		log.Printf("⚠️ [Trend] %s daily fetch failed, treating as NEUTRAL: %v", symbol, err)
	} else {
		daily = ClassifyDaily(bars)
	}

	if bars, err := t.data.FetchHourly(symbol); err != nil {
		log.Printf("⚠️ [Trend] %s hourly fetch failed, treating as NEUTRAL: %v", symbol, err)
	} else {
		hourly = ClassifyHourly(bars)
	}

	combined := CombineTrends(daily, hourly)
	log.Printf("📊 [Trend] %s daily=%s hourly=%s -> %s", symbol, daily, hourly, combined)
	return combined
}

// ClassifyDaily reads trend structure from daily bars: price above a
// rising moving average stack with bullish MACD.
func ClassifyDaily(bars []model.Bar) model.TimeframeTrend {
	latest, _, ok := indicator.LastTwo(bars)
	if !ok {
		return model.TimeframeNeutral
	}

	if latest.SMA20 == nil || latest.MACD == nil || latest.MACDSig == nil {
		return model.TimeframeNeutral
	}

	price := latest.Close
	sma20 := *latest.SMA20
	macdBull := *latest.MACD > *latest.MACDSig
	macdBear := *latest.MACD < *latest.MACDSig

	// SMA50 needs the longest warm-up; when it is still absent, lean on
	// the 20-day average alone
	aboveStack := price > sma20
	belowStack := price < sma20
	if latest.SMA50 != nil {
		aboveStack = aboveStack && sma20 > *latest.SMA50
	}

	switch {
	case aboveStack && macdBull:
		return model.TimeframeBullish
	case belowStack && macdBear:
		return model.TimeframeBearish
	default:
		return model.TimeframeNeutral
	}
}

// ClassifyHourly reads short-term momentum from hourly bars via the EMA
// pair and MACD agreement.
func ClassifyHourly(bars []model.Bar) model.TimeframeTrend {
	latest, _, ok := indicator.LastTwo(bars)
	if !ok {
		return model.TimeframeNeutral
	}

	if latest.EMA9 == nil || latest.EMA21 == nil || latest.MACD == nil || latest.MACDSig == nil {
		return model.TimeframeNeutral
	}

	switch {
	case *latest.EMA9 > *latest.EMA21 && *latest.MACD > *latest.MACDSig:
		return model.TimeframeBullish
	case *latest.EMA9 < *latest.EMA21 && *latest.MACD < *latest.MACDSig:
		return model.TimeframeBearish
	default:
		return model.TimeframeNeutral
	}
}

// CombineTrends merges the two timeframes by a fixed table. The
// timeframes must agree for the strong labels; a disagreement lands on
// NEUTRAL rather than trusting either side alone.
func CombineTrends(daily, hourly model.TimeframeTrend) model.TrendLabel {
	switch {
	case daily == model.TimeframeBullish && hourly == model.TimeframeBullish:
		return model.TrendStrongBullish
	case daily == model.TimeframeBullish && hourly == model.TimeframeNeutral:
		return model.TrendBullish
	case daily == model.TimeframeBearish && hourly == model.TimeframeBearish:
		return model.TrendBearish
	default:
		return model.TrendNeutral
	}
}
