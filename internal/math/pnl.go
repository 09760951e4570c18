package math

import "github.com/montanaflynn/stats"

// TradeStats represents aggregate statistics over closed trades
type TradeStats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // 0.0 - 1.0
	TotalPnL      float64
	AvgWin        float64 // mean winning PnL
	AvgLoss       float64 // mean losing PnL as a positive magnitude
	LargestWin    float64
	LargestLoss   float64
	ProfitFactor  float64
	ExpectedValue float64
}

// ComputeTradeStats calculates trading statistics from closed-trade PnLs.
// A trade with PnL > 0 counts as a win, everything else as a loss.
func ComputeTradeStats(pnls []float64) TradeStats {
	if len(pnls) == 0 {
		return TradeStats{}
	}

	s := TradeStats{
		TotalTrades: len(pnls),
	}

	var wins, losses []float64

	for _, pnl := range pnls {
		s.TotalPnL += pnl

		if pnl > 0 {
			s.WinningTrades++
			wins = append(wins, pnl)
			if pnl > s.LargestWin {
				s.LargestWin = pnl
			}
		} else {
			s.LosingTrades++
			losses = append(losses, -pnl)
			if -pnl > s.LargestLoss {
				s.LargestLoss = -pnl
			}
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)

	if len(wins) > 0 {
		s.AvgWin, _ = stats.Mean(wins)
	}
	if len(losses) > 0 {
		s.AvgLoss, _ = stats.Mean(losses)
	}

	if totalLosses := s.AvgLoss * float64(len(losses)); totalLosses > 0 {
		s.ProfitFactor = (s.AvgWin * float64(len(wins))) / totalLosses
	}

	lossProb := float64(s.LosingTrades) / float64(s.TotalTrades)
	s.ExpectedValue = (s.WinRate * s.AvgWin) - (lossProb * s.AvgLoss)

	return s
}

// CalculateDrawdown calculates drawdown from peak
func CalculateDrawdown(peak, current float64) float64 {
	if peak == 0 {
		return 0
	}
	return ((peak - current) / peak) * 100
}

// CalculateMaxDrawdown finds maximum drawdown from an equity curve
func CalculateMaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := equity[0]

	for _, value := range equity {
		if value > peak {
			peak = value
		}

		drawdown := CalculateDrawdown(peak, value)
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}
