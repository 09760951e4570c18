package service

import (
	"os"
	"testing"
	"time"

	"tradex-go/internal/model"
)

func newTestLog(t *testing.T) *TradeLogService {
	t.Helper()
	tl, err := NewTradeLogService(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create trade log: %v", err)
	}
	return tl
}

func TestLogTradeRoundTrip(t *testing.T) {
	tl := newTestLog(t)

	rec := model.TradeRecord{
		Timestamp:  time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC),
		Symbol:     "NIFTYBEES",
		Action:     "BUY",
		Quantity:   10,
		Price:      250.50,
		SignalType: "STRONG_BUY",
		PnL:        0,
		RSI:        32.5,
		MACD:       0.1234,
		SMA5:       249.10,
		SMA20:      251.30,
		IsPaper:    true,
	}
	if err := tl.LogTrade(rec); err != nil {
		t.Fatalf("LogTrade failed: %v", err)
	}

	trades, err := tl.ReadTrades()
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(trades))
	}

	got := trades[0]
	if got.Symbol != rec.Symbol || got.Action != rec.Action || got.Quantity != rec.Quantity {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.Price != 250.50 || got.RSI != 32.5 || !got.IsPaper {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp mismatch: %v vs %v", got.Timestamp, rec.Timestamp)
	}
}

func TestReadTradesSkipsMalformedRows(t *testing.T) {
	tl := newTestLog(t)
	tl.mustLog(t, "NIFTYBEES", "BUY", 0, time.Now())

	f, err := os.OpenFile(tl.tradesPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("Failed to open trade log: %v", err)
	}
	f.WriteString("not-a-timestamp,X,SELL,1,1,B,r,1,1,1,1,1,true\n")
	f.Close()

	trades, err := tl.ReadTrades()
	if err != nil {
		t.Fatalf("ReadTrades failed: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("Expected the malformed row skipped, got %d trades", len(trades))
	}
}

func TestSaveAndLoadPositions(t *testing.T) {
	tl := newTestLog(t)

	// Missing snapshot loads as an empty book
	book, err := tl.LoadPositions()
	if err != nil {
		t.Fatalf("LoadPositions failed: %v", err)
	}
	if len(book) != 0 {
		t.Fatalf("Expected empty book, got %d", len(book))
	}

	want := map[string]*model.Position{
		"NIFTYBEES": {
			Symbol:       "NIFTYBEES",
			Quantity:     10,
			EntryPrice:   250,
			EntryTime:    time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			StopLoss:     237.5,
			Target:       270,
			HighestPrice: 255,
			TrailingStop: 247.35,
			BotEntered:   true,
		},
	}
	if err := tl.SavePositions(want); err != nil {
		t.Fatalf("SavePositions failed: %v", err)
	}

	got, err := tl.LoadPositions()
	if err != nil {
		t.Fatalf("LoadPositions failed: %v", err)
	}
	pos := got["NIFTYBEES"]
	if pos == nil {
		t.Fatalf("Expected NIFTYBEES in loaded book")
	}
	if pos.Quantity != 10 || pos.EntryPrice != 250 || !pos.BotEntered {
		t.Errorf("Loaded position mismatch: %+v", pos)
	}
}

func TestDailyPnLAndClosedPnLs(t *testing.T) {
	tl := newTestLog(t)
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	tl.mustLog(t, "NIFTYBEES", "BUY", 0, day.Add(10*time.Hour))
	tl.mustLog(t, "NIFTYBEES", "SELL", 120, day.Add(11*time.Hour))
	tl.mustLog(t, "GOLDBEES", "PARTIAL_SELL", -30, day.Add(12*time.Hour))
	tl.mustLog(t, "GOLDBEES", "SELL", 50, day.AddDate(0, 0, 1).Add(10*time.Hour))

	got, err := tl.DailyPnL(day)
	if err != nil {
		t.Fatalf("DailyPnL failed: %v", err)
	}
	if got != 90 {
		t.Errorf("Expected daily PnL 90, got %.2f", got)
	}

	pnls, err := tl.ClosedPnLs("GOLDBEES")
	if err != nil {
		t.Fatalf("ClosedPnLs failed: %v", err)
	}
	if len(pnls) != 2 || pnls[0] != -30 || pnls[1] != 50 {
		t.Errorf("Unexpected GOLDBEES PnLs: %v", pnls)
	}

	all, err := tl.ClosedPnLs("")
	if err != nil {
		t.Fatalf("ClosedPnLs failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 closed rows, got %d", len(all))
	}
}

func TestMonthlyPnL(t *testing.T) {
	tl := newTestLog(t)
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tl.mustLog(t, "NIFTYBEES", "BUY", 0, month.AddDate(0, 0, 3))
	tl.mustLog(t, "NIFTYBEES", "SELL", 120, month.AddDate(0, 0, 3))
	tl.mustLog(t, "GOLDBEES", "PARTIAL_SELL", -30, month.AddDate(0, 0, 20))
	tl.mustLog(t, "GOLDBEES", "SELL", 75, month.AddDate(0, 1, 2))

	got, err := tl.MonthlyPnL(month.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("MonthlyPnL failed: %v", err)
	}
	if got != 90 {
		t.Errorf("Expected monthly PnL 90, got %.2f", got)
	}

	next, err := tl.MonthlyPnL(month.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("MonthlyPnL failed: %v", err)
	}
	if next != 75 {
		t.Errorf("Expected next month PnL 75, got %.2f", next)
	}
}

// mustLog writes a minimal trade row for stats tests
func (t *TradeLogService) mustLog(tb testing.TB, symbol, action string, pnl float64, ts time.Time) {
	tb.Helper()
	err := t.LogTrade(model.TradeRecord{
		Timestamp: ts,
		Symbol:    symbol,
		Action:    action,
		Quantity:  1,
		Price:     100,
		PnL:       pnl,
	})
	if err != nil {
		tb.Fatalf("LogTrade failed: %v", err)
	}
}
