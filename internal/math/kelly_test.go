package math

import (
	"math"
	"testing"
)

func TestCalculateOptimalF(t *testing.T) {
	// (2*0.6 - 0.4) / 2 = 0.4, clamped to the cap
	if got := CalculateOptimalF(0.6, 2, DefaultKellyCap); got != DefaultKellyCap {
		t.Errorf("Expected cap %.2f, got %.4f", DefaultKellyCap, got)
	}

	// A tighter configured cap binds instead of the default
	if got := CalculateOptimalF(0.6, 2, 0.10); math.Abs(got-0.10) > 1e-9 {
		t.Errorf("Expected configured cap 0.10, got %.4f", got)
	}

	// Non-positive cap falls back to the default
	if got := CalculateOptimalF(0.6, 2, 0); got != DefaultKellyCap {
		t.Errorf("Expected default cap %.2f, got %.4f", DefaultKellyCap, got)
	}

	// Negative edge never risks capital
	if got := CalculateOptimalF(0.3, 1, DefaultKellyCap); got != 0 {
		t.Errorf("Expected 0 for negative edge, got %.4f", got)
	}

	// (1*0.55 - 0.45) / 1 = 0.10, inside the cap
	if got := CalculateOptimalF(0.55, 1, DefaultKellyCap); math.Abs(got-0.10) > 1e-9 {
		t.Errorf("Expected 0.10, got %.4f", got)
	}

	// Degenerate inputs
	if got := CalculateOptimalF(0, 2, DefaultKellyCap); got != 0 {
		t.Errorf("Expected 0 for zero win rate, got %.4f", got)
	}
	if got := CalculateOptimalF(1, 2, DefaultKellyCap); got != 0 {
		t.Errorf("Expected 0 for certain win rate, got %.4f", got)
	}
	if got := CalculateOptimalF(0.6, 0, DefaultKellyCap); got != 0 {
		t.Errorf("Expected 0 for zero ratio, got %.4f", got)
	}
}

func TestConservativeKelly(t *testing.T) {
	// Trades +50, +30, -20: win rate 2/3, avg win 40, avg loss 20.
	// Raw Kelly hits the cap, half of the cap is 0.125.
	got := ConservativeKelly(2.0/3.0, 40, 20, DefaultKellyCap)
	if math.Abs(got-0.125) > 1e-9 {
		t.Errorf("Expected 0.125, got %.4f", got)
	}

	if got := ConservativeKelly(0.5, 10, 0, DefaultKellyCap); got != 0 {
		t.Errorf("Expected 0 when avg loss is zero, got %.4f", got)
	}
}

func TestComputeTradeStats(t *testing.T) {
	stats := ComputeTradeStats([]float64{50, 30, -20})

	if stats.TotalTrades != 3 || stats.WinningTrades != 2 || stats.LosingTrades != 1 {
		t.Fatalf("Unexpected counts: %+v", stats)
	}
	if math.Abs(stats.WinRate-2.0/3.0) > 1e-9 {
		t.Errorf("Expected win rate 0.667, got %.4f", stats.WinRate)
	}
	if stats.AvgWin != 40 {
		t.Errorf("Expected avg win 40, got %.2f", stats.AvgWin)
	}
	if stats.AvgLoss != 20 {
		t.Errorf("Expected avg loss 20, got %.2f", stats.AvgLoss)
	}
	if stats.TotalPnL != 60 {
		t.Errorf("Expected total PnL 60, got %.2f", stats.TotalPnL)
	}
	if stats.LargestWin != 50 || stats.LargestLoss != 20 {
		t.Errorf("Unexpected extremes: %+v", stats)
	}
	if math.Abs(stats.ProfitFactor-4) > 1e-9 {
		t.Errorf("Expected profit factor 4, got %.4f", stats.ProfitFactor)
	}

	empty := ComputeTradeStats(nil)
	if empty.TotalTrades != 0 || empty.WinRate != 0 {
		t.Errorf("Expected zero stats for no trades, got %+v", empty)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	equity := []float64{100, 120, 90, 110, 80}
	got := CalculateMaxDrawdown(equity)
	// Peak 120 to trough 80 is a third
	if math.Abs(got-33.333333) > 0.001 {
		t.Errorf("Expected ~33.33, got %.4f", got)
	}

	if got := CalculateMaxDrawdown(nil); got != 0 {
		t.Errorf("Expected 0 for empty curve, got %.4f", got)
	}
}
