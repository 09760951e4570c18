package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"tradex-go/internal/model"
)

const tradeTimeLayout = "2006-01-02 15:04:05"

var tradeCSVHeader = []string{
	"timestamp", "symbol", "action", "quantity", "price",
	"signal_type", "reason", "pnl", "rsi", "macd", "sma_5", "sma_20", "is_paper",
}

// TradeLogService persists trades to an append-only CSV and the open
// position book to a whole-file JSON snapshot. One process owns the
// files; the last writer wins.
type TradeLogService struct {
	mu            sync.Mutex
	tradesPath    string
	positionsPath string
}

func NewTradeLogService(dataDir string) (*TradeLogService, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	t := &TradeLogService{
		tradesPath:    filepath.Join(dataDir, "trades.csv"),
		positionsPath: filepath.Join(dataDir, "positions.json"),
	}
	if err := t.ensureHeader(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TradeLogService) ensureHeader() error {
	if _, err := os.Stat(t.tradesPath); err == nil {
		return nil
	}
	f, err := os.OpenFile(t.tradesPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create trade log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tradeCSVHeader); err != nil {
		return fmt.Errorf("write trade log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// LogTrade appends one trade row
func (t *TradeLogService) LogTrade(rec model.TradeRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.tradesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open trade log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		rec.Timestamp.Format(tradeTimeLayout),
		rec.Symbol,
		rec.Action,
		strconv.Itoa(rec.Quantity),
		strconv.FormatFloat(rec.Price, 'f', 2, 64),
		rec.SignalType,
		rec.Reason,
		strconv.FormatFloat(rec.PnL, 'f', 2, 64),
		strconv.FormatFloat(rec.RSI, 'f', 2, 64),
		strconv.FormatFloat(rec.MACD, 'f', 4, 64),
		strconv.FormatFloat(rec.SMA5, 'f', 2, 64),
		strconv.FormatFloat(rec.SMA20, 'f', 2, 64),
		strconv.FormatBool(rec.IsPaper),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("write trade row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ReadTrades loads the entire trade history. Malformed rows are skipped
// with a warning instead of failing the whole read.
func (t *TradeLogService) ReadTrades() ([]model.TradeRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.tradesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read trade log: %w", err)
	}

	var trades []model.TradeRecord
	for i, row := range rows {
		if i == 0 || len(row) < 13 {
			continue
		}
		ts, err := time.Parse(tradeTimeLayout, row[0])
		if err != nil {
			log.Printf("⚠️ [Trade Log] Skipping row %d: bad timestamp %q", i, row[0])
			continue
		}
		qty, _ := strconv.Atoi(row[3])
		price, _ := strconv.ParseFloat(row[4], 64)
		pnl, _ := strconv.ParseFloat(row[7], 64)
		rsi, _ := strconv.ParseFloat(row[8], 64)
		macd, _ := strconv.ParseFloat(row[9], 64)
		sma5, _ := strconv.ParseFloat(row[10], 64)
		sma20, _ := strconv.ParseFloat(row[11], 64)
		isPaper, _ := strconv.ParseBool(row[12])

		trades = append(trades, model.TradeRecord{
			Timestamp:  ts,
			Symbol:     row[1],
			Action:     row[2],
			Quantity:   qty,
			Price:      price,
			SignalType: row[5],
			Reason:     row[6],
			PnL:        pnl,
			RSI:        rsi,
			MACD:       macd,
			SMA5:       sma5,
			SMA20:      sma20,
			IsPaper:    isPaper,
		})
	}
	return trades, nil
}

type positionsFile struct {
	LastUpdated time.Time                  `json:"last_updated"`
	Positions   map[string]*model.Position `json:"positions"`
}

// SavePositions overwrites the position book snapshot
func (t *TradeLogService) SavePositions(positions map[string]*model.Position) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	payload := positionsFile{
		LastUpdated: time.Now(),
		Positions:   positions,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := os.WriteFile(t.positionsPath, data, 0o644); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// LoadPositions restores the position book, empty when no snapshot exists
func (t *TradeLogService) LoadPositions() (map[string]*model.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.positionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*model.Position{}, nil
		}
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var payload positionsFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	if payload.Positions == nil {
		payload.Positions = map[string]*model.Position{}
	}
	return payload.Positions, nil
}

// ClosedPnLs returns realized PnLs of exit trades, optionally filtered
// by symbol (empty string matches all)
func (t *TradeLogService) ClosedPnLs(symbol string) ([]float64, error) {
	trades, err := t.ReadTrades()
	if err != nil {
		return nil, err
	}
	var pnls []float64
	for _, tr := range trades {
		if tr.Action != "SELL" && tr.Action != "PARTIAL_SELL" {
			continue
		}
		if symbol != "" && tr.Symbol != symbol {
			continue
		}
		pnls = append(pnls, tr.PnL)
	}
	return pnls, nil
}

// DailyPnL sums realized PnL for the given calendar day
func (t *TradeLogService) DailyPnL(day time.Time) (float64, error) {
	trades, err := t.ReadTrades()
	if err != nil {
		return 0, err
	}
	y, m, d := day.Date()
	total := 0.0
	for _, tr := range trades {
		ty, tm, td := tr.Timestamp.Date()
		if ty == y && tm == m && td == d && (tr.Action == "SELL" || tr.Action == "PARTIAL_SELL") {
			total += tr.PnL
		}
	}
	return total, nil
}

// MonthlyPnL sums realized PnL for the given calendar month
func (t *TradeLogService) MonthlyPnL(month time.Time) (float64, error) {
	trades, err := t.ReadTrades()
	if err != nil {
		return 0, err
	}
	y, m, _ := month.Date()
	total := 0.0
	for _, tr := range trades {
		ty, tm, _ := tr.Timestamp.Date()
		if ty == y && tm == m && (tr.Action == "SELL" || tr.Action == "PARTIAL_SELL") {
			total += tr.PnL
		}
	}
	return total, nil
}
