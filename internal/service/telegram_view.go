package service

import (
	"fmt"
	"strings"
	"time"

	"tradex-go/internal/model"
)

// Formatstartup builds the bot startup alert.
func FormatStartup(symbols []string, capital float64, paper bool) string {
	mode := "🔴 LIVE"
	if paper {
		mode = "📝 PAPER"
	}

	return fmt.Sprintf(`🚀 <b>TradeX Bot Started</b>

<b>Mode:</b> %s
<b>Capital:</b> ₹%.2f
<b>Symbols:</b> %s
<b>Time:</b> %s`,
		mode, capital,
		strings.Join(symbols, ", "),
		time.Now().Format("15:04:05, 02 Jan 2006"))
}

// FormatMarketOpen builds the market-open alert.
func FormatMarketOpen() string {
	return `🔔 <b>Market Open</b>

Trading session started. Scanning symbols every cycle.`
}

// FormatMarketClosed builds the market-closed alert.
func FormatMarketClosed(status string) string {
	return fmt.Sprintf(`🌙 <b>Market Closed</b>

%s
Bot will resume scanning when the market opens.`, status)
}

// FormatBuy builds the buy-execution alert.
func FormatBuy(symbol string, qty int, price float64, pos *model.Position, signal *model.Signal, confidence float64) string {
	reasons := "-"
	if signal != nil && len(signal.Reasons) > 0 {
		reasons = escapeHTML(strings.Join(signal.Reasons, "\n• "))
	}

	return fmt.Sprintf(`🟢 <b>BUY EXECUTED - %s</b>

<b>Quantity:</b> %d
<b>Entry:</b> ₹%.2f
<b>Stop Loss:</b> ₹%.2f
<b>Target:</b> ₹%.2f
<b>Invested:</b> ₹%.2f
<b>Confidence:</b> %.0f%%

<b>Reasons:</b>
• %s

⏰ %s`,
		symbol, qty, price,
		pos.StopLoss, pos.Target,
		float64(qty)*price,
		confidence*100,
		reasons,
		time.Now().Format("15:04:05, 02 Jan"))
}

// FormatSell builds the exit-execution alert, covering both full and
// partial exits.
func FormatSell(symbol string, qty int, price, entryPrice, pnl float64, reason model.ExitReason) string {
	emoji := "✅"
	if pnl < 0 {
		emoji = "❌"
	}

	pnlPct := 0.0
	if entryPrice > 0 {
		pnlPct = (price - entryPrice) / entryPrice * 100
	}

	return fmt.Sprintf(`%s <b>SELL EXECUTED - %s</b>

<b>Reason:</b> %s
<b>Quantity:</b> %d
<b>Entry:</b> ₹%.2f
<b>Exit:</b> ₹%.2f
<b>PnL:</b> %s₹%.2f (%s%.2f%%)

⏰ %s`,
		emoji, symbol,
		reason, qty,
		entryPrice, price,
		getPnLSign(pnl), pnl,
		getPnLSign(pnlPct), pnlPct,
		time.Now().Format("15:04:05, 02 Jan"))
}

// FormatSkippedTrade builds the alert for a signal that was vetoed by the
// confidence gates.
func FormatSkippedTrade(symbol string, signalType model.SignalType, reasons []string) string {
	detail := "-"
	if len(reasons) > 0 {
		detail = escapeHTML(strings.Join(reasons, "\n• "))
	}

	return fmt.Sprintf(`⏭️ <b>Trade Skipped - %s</b>

<b>Signal:</b> %s

<b>Why:</b>
• %s`, symbol, signalType, detail)
}

// FormatOvernightPositions builds the after-close alert listing positions
// still held.
func FormatOvernightPositions(positions map[string]*model.Position, prices map[string]float64) string {
	if len(positions) == 0 {
		return `🌙 <b>Overnight Check</b>

No open positions held overnight.`
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌙 <b>Overnight Positions (%d)</b>\n\n", len(positions))

	for symbol, pos := range positions {
		line := fmt.Sprintf("📍 <b>%s</b>: %d @ ₹%.2f", symbol, pos.Quantity, pos.EntryPrice)
		if price, ok := prices[symbol]; ok && price > 0 {
			pnl := (price - pos.EntryPrice) * float64(pos.Quantity)
			line += fmt.Sprintf(" | LTP ₹%.2f | PnL %s₹%.2f", price, getPnLSign(pnl), pnl)
		}
		if !pos.BotEntered {
			line += " (external)"
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// FormatDailySummary builds the end-of-day performance alert.
func FormatDailySummary(dailyPnL, monthlyPnL, maxDrawdownPct float64, stats model.PerfStats, openPositions int) string {
	winRate := stats.WinRate() * 100

	return fmt.Sprintf(`📊 <b>Daily Summary</b>

<b>Today's PnL:</b> %s₹%.2f
<b>This Month:</b> %s₹%.2f
<b>All-time PnL:</b> %s₹%.2f
<b>Win Rate:</b> %.1f%% (%d/%d)
<b>Max Drawdown:</b> %.1f%%
<b>Open Positions:</b> %d

📅 %s`,
		getPnLSign(dailyPnL), dailyPnL,
		getPnLSign(monthlyPnL), monthlyPnL,
		getPnLSign(stats.TotalPnL), stats.TotalPnL,
		winRate, stats.Wins, stats.Total(),
		maxDrawdownPct,
		openPositions,
		time.Now().Format("02 Jan 2006"))
}

// FormatError builds an error alert for failures the operator should see.
func FormatError(context string, err error) string {
	return fmt.Sprintf(`❌ <b>Bot Error</b>

<b>Where:</b> %s
<b>Error:</b> %s`, escapeHTML(context), escapeHTML(err.Error()))
}

// escapeHTML escapes HTML special characters for Telegram
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func getPnLSign(pnl float64) string {
	if pnl > 0 {
		return "+"
	}
	return ""
}
