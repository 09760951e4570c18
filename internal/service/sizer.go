package service

import (
	"log"

	tmath "tradex-go/internal/math"
)

// SizerService converts trade-history statistics into a position size
// via the half-Kelly fraction, discounted by the confidence gate's
// numeric score.
type SizerService struct {
	tradeLog *TradeLogService

	minTrades       int
	defaultFraction float64
	kellyCap        float64
	maxPositionPct  float64
}

func NewSizerService(tradeLog *TradeLogService, minTrades int, defaultFraction, kellyCap, maxPositionPct float64) *SizerService {
	return &SizerService{
		tradeLog:        tradeLog,
		minTrades:       minTrades,
		defaultFraction: defaultFraction,
		kellyCap:        kellyCap,
		maxPositionPct:  maxPositionPct,
	}
}

// TradeStatistics computes Kelly inputs from closed trades, optionally
// per symbol. Returns ok=false when the sample is below the minimum:
// Kelly estimates from a handful of trades are noise, not signal.
func (s *SizerService) TradeStatistics(symbol string) (tmath.TradeStats, bool) {
	pnls, err := s.tradeLog.ClosedPnLs(symbol)
	if err != nil {
		log.Printf("⚠️ [Sizer] Could not read trade history: %v", err)
		return tmath.TradeStats{}, false
	}

	// Flat trades carry no information about the edge
	filtered := pnls[:0:0]
	for _, p := range pnls {
		if p != 0 {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) < s.minTrades {
		return tmath.TradeStats{}, false
	}
	return tmath.ComputeTradeStats(filtered), true
}

// KellyFraction returns the half-Kelly capital fraction for the symbol,
// or the configured default when history is too thin
func (s *SizerService) KellyFraction(symbol string) float64 {
	stats, ok := s.TradeStatistics(symbol)
	if !ok {
		return s.defaultFraction
	}

	avgLoss := stats.AvgLoss
	if avgLoss <= 0 {
		avgLoss = 1 // degenerate all-win history, avoid dividing by zero
	}
	return tmath.ConservativeKelly(stats.WinRate, stats.AvgWin, avgLoss, s.kellyCap)
}

// PositionSize returns the quantity to buy for the given capital, price
// and confidence score. A qualifying signal is never dropped purely by
// rounding: one unit goes through whenever capital covers it.
func (s *SizerService) PositionSize(capital, price float64, symbol string, confidence float64) int {
	if price <= 0 || capital <= 0 {
		return 0
	}

	fraction := s.KellyFraction(symbol) * ClampFloat64(confidence, 0, 1)
	if s.maxPositionPct > 0 && fraction > s.maxPositionPct {
		fraction = s.maxPositionPct
	}
	positionValue := capital * fraction

	quantity := int(positionValue / price)
	if quantity == 0 && capital >= price {
		quantity = 1
	}
	return quantity
}
