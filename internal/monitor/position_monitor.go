package monitor

import (
	"log"
	"math"
	"time"

	"tradex-go/internal/model"
)

// atrStopMultiplier widens the trailing stop by volatility
const atrStopMultiplier = 2.0

// Holding is a broker-side position used during reconciliation
type Holding struct {
	Symbol    string
	Quantity  int
	AvgPrice  float64
	LastPrice float64
}

// ExitDecision describes what the exit rules want done with a position
type ExitDecision struct {
	Reason        model.ExitReason
	Quantity      int
	EffectiveStop float64
	Target        float64
	Partial       bool
}

// Manager owns the open position book. It is driven exclusively from
// the polling loop goroutine, so no locking is needed.
type Manager struct {
	stopLossPct  float64
	targetPct    float64
	trailingPct  float64
	maxPositions int

	positions map[string]*model.Position
}

func NewManager(stopLossPct, targetPct, trailingPct float64, maxPositions int) *Manager {
	return &Manager{
		stopLossPct:  stopLossPct,
		targetPct:    targetPct,
		trailingPct:  trailingPct,
		maxPositions: maxPositions,
		positions:    map[string]*model.Position{},
	}
}

// Load replaces the position book, typically from the restart snapshot
func (m *Manager) Load(positions map[string]*model.Position) {
	if positions == nil {
		positions = map[string]*model.Position{}
	}
	m.positions = positions
	for symbol, pos := range positions {
		log.Printf("📍 Loaded position: %s - %d @ %.2f (bot_entered=%v)",
			symbol, pos.Quantity, pos.EntryPrice, pos.BotEntered)
	}
}

// Positions exposes the book for persistence
func (m *Manager) Positions() map[string]*model.Position { return m.positions }

// Get returns the position for a symbol, nil when flat
func (m *Manager) Get(symbol string) *model.Position { return m.positions[symbol] }

// Count returns the number of open positions
func (m *Manager) Count() int { return len(m.positions) }

// CanOpen reports whether the position cap allows another entry
func (m *Manager) CanOpen() bool { return len(m.positions) < m.maxPositions }

// Open records a fresh bot-entered position after a filled buy order
func (m *Manager) Open(symbol string, quantity int, price float64, signalType string, at time.Time) *model.Position {
	pos := &model.Position{
		Symbol:       symbol,
		Quantity:     quantity,
		EntryPrice:   price,
		EntryTime:    at,
		StopLoss:     price * (1 - m.stopLossPct),
		Target:       price * (1 + m.targetPct),
		HighestPrice: price,
		TrailingStop: price * (1 - m.trailingPct),
		SignalType:   signalType,
		BotEntered:   true,
	}
	m.positions[symbol] = pos
	return pos
}

// Track updates the high-water mark and trailing stop for the latest
// price without making any exit decision
func (m *Manager) Track(pos *model.Position, price float64) {
	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}
	pos.TrailingStop = pos.HighestPrice * (1 - m.trailingPct)
}

// EvaluateExit applies the exit rules in fixed priority order:
// stop (fixed/trailing/ATR, whichever is most conservative), then full
// target, then the one-shot partial target, then a tactical SELL as a
// trend-reversal exit. Returns nil when the position should be held.
// Externally-owned positions are tracked but never exited.
func (m *Manager) EvaluateExit(pos *model.Position, price, atr float64, signal model.SignalType) *ExitDecision {
	m.Track(pos, price)

	if !pos.BotEntered {
		return nil
	}

	fixedStop := pos.EntryPrice * (1 - m.stopLossPct)
	trailingStop := pos.HighestPrice * (1 - m.trailingPct)
	effectiveStop := math.Max(fixedStop, trailingStop)

	// Volatility stop tightens the exit only when it sits above the
	// percentage stops
	if atr > 0 {
		effectiveStop = math.Max(effectiveStop, pos.HighestPrice-atr*atrStopMultiplier)
	}

	target := pos.EntryPrice * (1 + m.targetPct)
	partialTarget := pos.EntryPrice * (1 + m.targetPct*0.5)

	switch {
	case price <= effectiveStop:
		reason := model.ExitStopLoss
		if trailingStop > fixedStop {
			reason = model.ExitTrailingStop
		}
		return &ExitDecision{Reason: reason, Quantity: pos.Quantity, EffectiveStop: effectiveStop, Target: target}

	case price >= target:
		return &ExitDecision{Reason: model.ExitTargetHit, Quantity: pos.Quantity, EffectiveStop: effectiveStop, Target: target}

	case !pos.PartialDone && price >= partialTarget:
		half := pos.Quantity / 2
		if half < 1 {
			half = 1
		}
		return &ExitDecision{
			Reason:        model.ExitPartialTarget,
			Quantity:      half,
			EffectiveStop: effectiveStop,
			Target:        target,
			Partial:       half < pos.Quantity,
		}

	case signal == model.SignalSell:
		return &ExitDecision{Reason: model.ExitTrendReversal, Quantity: pos.Quantity, EffectiveStop: effectiveStop, Target: target}
	}

	return nil
}

// ApplyExit mutates the book after a filled sell order. Returns true
// when the position is fully closed. A partial exit keeps the original
// entry price: selling half at market does not change the cost basis
// of the remaining units.
func (m *Manager) ApplyExit(symbol string, d ExitDecision) bool {
	pos, ok := m.positions[symbol]
	if !ok {
		return false
	}
	// The one-shot flag is consumed only on a filled order, so a failed
	// partial sell is retried on the next cycle
	if d.Reason == model.ExitPartialTarget {
		pos.PartialDone = true
	}
	if d.Quantity < pos.Quantity {
		pos.Quantity -= d.Quantity
		log.Printf("📊 Remaining position: %s %d units @ %.2f", symbol, pos.Quantity, pos.EntryPrice)
		return false
	}
	delete(m.positions, symbol)
	return true
}

// Reconcile aligns the book with the broker's holdings: unknown
// holdings are adopted as external positions, quantities follow manual
// adjustments, and external positions missing from the broker are
// dropped. Bot-entered positions absent from holdings stay put, orders
// can settle later than the book updates.
func (m *Manager) Reconcile(holdings []Holding) {
	seen := map[string]bool{}
	for _, h := range holdings {
		seen[h.Symbol] = true

		pos, ok := m.positions[h.Symbol]
		if !ok {
			m.positions[h.Symbol] = &model.Position{
				Symbol:       h.Symbol,
				Quantity:     h.Quantity,
				EntryPrice:   h.AvgPrice,
				EntryTime:    time.Now(),
				HighestPrice: math.Max(h.AvgPrice, h.LastPrice),
				BotEntered:   false,
			}
			log.Printf("📍 New external position detected: %s - %d @ %.2f", h.Symbol, h.Quantity, h.AvgPrice)
			continue
		}

		if h.LastPrice > pos.HighestPrice {
			pos.HighestPrice = h.LastPrice
		}
		if h.Quantity != pos.Quantity {
			log.Printf("🔄 Position quantity updated: %s (%d -> %d)", h.Symbol, pos.Quantity, h.Quantity)
			pos.Quantity = h.Quantity
		}
	}

	for symbol, pos := range m.positions {
		if !seen[symbol] && !pos.BotEntered {
			log.Printf("🗑️ External position closed: %s", symbol)
			delete(m.positions, symbol)
		}
	}
}
