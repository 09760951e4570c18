package service

import (
	"math"
	"testing"
	"time"

	"tradex-go/internal/model"
)

func logSizerTrade(t *testing.T, tl *TradeLogService, pnl float64) {
	t.Helper()
	err := tl.LogTrade(model.TradeRecord{
		Timestamp:  time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Symbol:     "GOLDBEES",
		Action:     "SELL",
		Quantity:   1,
		Price:      100,
		SignalType: "BUY",
		Reason:     string(model.ExitTargetHit),
		PnL:        pnl,
	})
	if err != nil {
		t.Fatalf("LogTrade failed: %v", err)
	}
}

func TestPositionSizeDefaultFraction(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTradeLogService(dir)
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}
	sizer := NewSizerService(tl, 10, 0.50, 0.25, 0.50)

	// No history: the configured default fraction applies as-is
	qty := sizer.PositionSize(100000, 100, "GOLDBEES", 1.0)
	if qty != 500 {
		t.Errorf("Expected 500 units, got %d", qty)
	}

	// Confidence scales the fraction down
	qty = sizer.PositionSize(100000, 100, "GOLDBEES", 0.5)
	if qty != 250 {
		t.Errorf("Expected 250 units at half confidence, got %d", qty)
	}
}

func TestPositionSizeUsesKellyWithHistory(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTradeLogService(dir)
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}
	sizer := NewSizerService(tl, 10, 0.50, 0.25, 0.50)

	// 8 wins of +50, 4 losses of -20: raw Kelly caps at 0.25, halved to 0.125
	for i := 0; i < 8; i++ {
		logSizerTrade(t, tl, 50)
	}
	for i := 0; i < 4; i++ {
		logSizerTrade(t, tl, -20)
	}

	f := sizer.KellyFraction("GOLDBEES")
	if math.Abs(f-0.125) > 1e-9 {
		t.Errorf("Expected Kelly fraction 0.125, got %.4f", f)
	}

	qty := sizer.PositionSize(100000, 100, "GOLDBEES", 1.0)
	if qty != 125 {
		t.Errorf("Expected 125 units, got %d", qty)
	}
}

func TestPositionSizeHonorsConfiguredCaps(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTradeLogService(dir)
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}

	// Per-position cap tighter than the default fraction: 30% of capital
	sizer := NewSizerService(tl, 10, 0.50, 0.25, 0.30)
	if qty := sizer.PositionSize(100000, 100, "GOLDBEES", 1.0); qty != 300 {
		t.Errorf("Expected 300 units under the 30%% position cap, got %d", qty)
	}

	// Tighter Kelly cap flows through to the half-Kelly fraction
	capped := NewSizerService(tl, 10, 0.50, 0.10, 0.50)
	for i := 0; i < 8; i++ {
		logSizerTrade(t, tl, 50)
	}
	for i := 0; i < 4; i++ {
		logSizerTrade(t, tl, -20)
	}
	if f := capped.KellyFraction("GOLDBEES"); math.Abs(f-0.05) > 1e-9 {
		t.Errorf("Expected Kelly fraction 0.05 under a 0.10 cap, got %.4f", f)
	}
}

func TestTradeStatisticsIgnoresThinSamples(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTradeLogService(dir)
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}
	sizer := NewSizerService(tl, 10, 0.50, 0.25, 0.50)

	for i := 0; i < 5; i++ {
		logSizerTrade(t, tl, 50)
	}
	if _, ok := sizer.TradeStatistics("GOLDBEES"); ok {
		t.Errorf("5 trades must not qualify when the minimum is 10")
	}
}

func TestPositionSizeEdgeCases(t *testing.T) {
	dir := t.TempDir()
	tl, err := NewTradeLogService(dir)
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}
	sizer := NewSizerService(tl, 10, 0.50, 0.25, 0.50)

	// Rounding to zero still buys a single unit when capital covers it
	if qty := sizer.PositionSize(100, 90, "GOLDBEES", 1.0); qty != 1 {
		t.Errorf("Expected forced single unit, got %d", qty)
	}

	// Cannot afford even one unit
	if qty := sizer.PositionSize(50, 100, "GOLDBEES", 1.0); qty != 0 {
		t.Errorf("Expected 0 when price exceeds capital, got %d", qty)
	}

	if qty := sizer.PositionSize(100000, 0, "GOLDBEES", 1.0); qty != 0 {
		t.Errorf("Expected 0 for non-positive price, got %d", qty)
	}

	// Confidence above 1 is clamped, not amplified
	a := sizer.PositionSize(100000, 100, "GOLDBEES", 1.0)
	b := sizer.PositionSize(100000, 100, "GOLDBEES", 2.0)
	if a != b {
		t.Errorf("Confidence clamp failed: %d vs %d", a, b)
	}
}
