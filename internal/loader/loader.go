package loader

import (
	"fmt"
	"log"
	"strings"
	"time"

	"tradex-go/internal/config"
	"tradex-go/internal/indicator"
	tmath "tradex-go/internal/math"
	"tradex-go/internal/model"
	"tradex-go/internal/monitor"
	"tradex-go/internal/service"

	"github.com/robfig/cron/v3"
)

// Loader drives the trading cycle: one poll per check interval, every
// symbol processed sequentially on the same goroutine. The position
// book, learning state and ML model are only ever touched from here.
type Loader struct {
	clock     *service.SessionClock
	data      *service.MarketDataService
	broker    *service.BrokerService
	trend     *service.TrendService
	strategy  *service.StrategyService
	levels    *service.LevelsService
	learning  *service.LearningService
	predictor *service.PredictorService
	sizer     *service.SizerService
	tradeLog  *service.TradeLogService
	notifier  *service.NotifierService
	book      *monitor.Manager

	capital         float64
	maxDailyLossPct float64
	syncInterval    time.Duration
	closedSleep     time.Duration
	liquidityOnly   bool

	isPolling      bool
	sleepUntil     time.Time
	lastSync       time.Time
	closedAlertDay string
	summaryDay     string
	lossAlertDay   string
	marketWasOpen  bool
	cycle          int
}

// NewLoader creates a new loader instance
func NewLoader(
	clock *service.SessionClock,
	data *service.MarketDataService,
	broker *service.BrokerService,
	trend *service.TrendService,
	strategy *service.StrategyService,
	levels *service.LevelsService,
	learning *service.LearningService,
	predictor *service.PredictorService,
	sizer *service.SizerService,
	tradeLog *service.TradeLogService,
	notifier *service.NotifierService,
	book *monitor.Manager,
) *Loader {
	cfg := config.AppConfig
	return &Loader{
		clock:     clock,
		data:      data,
		broker:    broker,
		trend:     trend,
		strategy:  strategy,
		levels:    levels,
		learning:  learning,
		predictor: predictor,
		sizer:     sizer,
		tradeLog:  tradeLog,
		notifier:  notifier,
		book:      book,

		capital:         cfg.TradingCapital,
		maxDailyLossPct: cfg.MaxDailyLossPct,
		syncInterval:    time.Duration(cfg.PositionSyncInterval) * time.Second,
		closedSleep:     time.Duration(cfg.MarketClosedSleep) * time.Second,
		liquidityOnly:   cfg.TradeOnlyHighLiquidity,
	}
}

// Start begins the scheduled polling. The returned cron can be stopped
// for a graceful shutdown.
func (l *Loader) Start() *cron.Cron {
	log.Println("🚀 Starting trading loop...")

	c := cron.New()

	spec := fmt.Sprintf("@every %ds", config.AppConfig.CheckInterval)
	c.AddFunc(spec, func() {
		if l.isPolling {
			log.Println("⏭️  Skipping cycle - previous poll still running")
			return
		}
		l.poll()
	})

	c.Start()

	log.Printf("⏰ Scheduler started - polling every %ds", config.AppConfig.CheckInterval)
	return c
}

// Poll runs one trading cycle immediately. Exposed so startup can do a
// first pass without waiting for the scheduler tick.
func (l *Loader) Poll() {
	if l.isPolling {
		return
	}
	l.poll()
}

// poll executes one complete trading cycle
func (l *Loader) poll() {
	l.isPolling = true
	defer func() {
		l.isPolling = false
	}()
	defer service.RecoverAndLog("trading cycle")

	if l.clock.Now().Before(l.sleepUntil) {
		return
	}

	l.cycle++
	log.Println("===========================================")
	log.Printf("🔄 Cycle #%d started at %s", l.cycle, l.clock.Now().Format("15:04:05"))
	log.Println("===========================================")

	l.syncPositions()

	open, status := l.clock.IsMarketOpen()
	if !open {
		l.handleMarketClosed(status)
		return
	}

	if !l.marketWasOpen {
		l.notifier.Send(service.FormatMarketOpen())
		l.marketWasOpen = true
	}

	if l.dailyLossLimitHit() {
		return
	}

	entriesAllowed := true
	if l.liquidityOnly {
		in, window := l.clock.IsHighLiquidityWindow()
		if !in {
			log.Printf("⏳ %s - holding off new entries", window)
			entriesAllowed = false
		}
	}

	for _, symbol := range config.AppConfig.Symbols {
		l.processSymbol(symbol, entriesAllowed)
	}

	log.Printf("✨ Cycle #%d complete - %d open position(s)", l.cycle, l.book.Count())
}

// syncPositions reconciles the in-memory book against broker holdings
// on the configured cadence, adopting externally-opened positions and
// dropping external ones that disappeared.
func (l *Loader) syncPositions() {
	if time.Since(l.lastSync) < l.syncInterval {
		return
	}
	l.lastSync = time.Now()

	holdings, err := l.broker.Holdings()
	if err != nil {
		log.Printf("⚠️ Position sync failed: %v", err)
		return
	}

	mapped := make([]monitor.Holding, 0, len(holdings))
	for _, h := range holdings {
		mapped = append(mapped, monitor.Holding{
			Symbol:    h.Symbol,
			Quantity:  h.Quantity,
			AvgPrice:  h.AvgPrice,
			LastPrice: h.LastPrice,
		})
	}

	l.book.Reconcile(mapped)
	l.saveBook()
}

// handleMarketClosed sends the once-per-day closed/overnight/summary
// alerts and backs the loop off until the closed-sleep interval passes.
func (l *Loader) handleMarketClosed(status string) {
	day := l.clock.Now().Format("2006-01-02")

	if l.closedAlertDay != day {
		l.notifier.Send(service.FormatMarketClosed(status))
		l.closedAlertDay = day
		l.marketWasOpen = false
	}

	if l.summaryDay != day {
		if l.book.Count() > 0 {
			l.notifier.Send(service.FormatOvernightPositions(l.book.Positions(), nil))
		}

		dailyPnL, err := l.tradeLog.DailyPnL(l.clock.Now())
		if err != nil {
			log.Printf("⚠️ Failed to compute daily PnL: %v", err)
		}
		monthlyPnL, err := l.tradeLog.MonthlyPnL(l.clock.Now())
		if err != nil {
			log.Printf("⚠️ Failed to compute monthly PnL: %v", err)
		}
		stats, drawdown := l.allTimeStats()
		l.notifier.Send(service.FormatDailySummary(dailyPnL, monthlyPnL, drawdown, stats, l.book.Count()))
		l.summaryDay = day
	}

	log.Printf("⏳ %s. Sleeping for %s...", status, l.closedSleep)
	l.sleepUntil = l.clock.Now().Add(l.closedSleep)
}

// dailyLossLimitHit pauses trading for an hour once today's realized
// losses exceed the configured share of capital.
func (l *Loader) dailyLossLimitHit() bool {
	dailyPnL, err := l.tradeLog.DailyPnL(l.clock.Now())
	if err != nil {
		log.Printf("⚠️ Failed to compute daily PnL: %v", err)
		return false
	}

	limit := -(l.capital * l.maxDailyLossPct)
	if dailyPnL > limit {
		return false
	}

	log.Printf("🛑 DAILY LOSS LIMIT REACHED: ₹%.2f (limit ₹%.2f)", dailyPnL, limit)

	day := l.clock.Now().Format("2006-01-02")
	if l.lossAlertDay != day {
		l.notifier.Send(fmt.Sprintf("⚠️ Daily loss limit reached: ₹%.2f. Bot paused.", dailyPnL))
		l.lossAlertDay = day
	}

	l.sleepUntil = l.clock.Now().Add(time.Hour)
	return true
}

// processSymbol runs trend analysis, signal evaluation and the
// entry/exit rules for one symbol. A panic here is contained so the
// other symbols still get their turn.
func (l *Loader) processSymbol(symbol string, entriesAllowed bool) {
	defer service.RecoverAndLog("processing " + symbol)

	trend := l.trend.Analyze(symbol)

	bars, err := l.data.FetchBars(symbol, "5d", "5m")
	if err != nil || len(bars) == 0 {
		log.Printf("⚠️ No data for %s: %v", symbol, err)
		return
	}

	sig := l.strategy.EvaluateBars(symbol, bars, trend)
	price := bars[len(bars)-1].Close
	pos := l.book.Get(symbol)

	// A SELL with nothing to sell is just a bearish observation
	if pos == nil && sig.Type == model.SignalSell {
		sig.Type = model.SignalHold
		sig.Reasons = []string{
			"Bearish: " + strings.Join(sig.Reasons, "; "),
			"No position (cannot exit)",
		}
	}

	log.Printf("📊 %s | %s | trend=%s | ₹%.2f | %s",
		symbol, sig.Type, trend, price, strings.Join(sig.Reasons, " / "))

	if pos != nil {
		l.manageExit(symbol, pos, price, bars, sig)
		return
	}

	if entriesAllowed && (sig.Type == model.SignalBuy || sig.Type == model.SignalStrongBuy) {
		l.tryEnter(symbol, sig, bars, price)
	}
}

// tryEnter runs the pre-trade gates (capacity, resistance proximity,
// learning veto, ML veto) and places the buy when every gate passes.
func (l *Loader) tryEnter(symbol string, sig model.Signal, bars []model.Bar, price float64) {
	if !l.book.CanOpen() {
		log.Printf("⚠️ Max positions reached. Skipping %s", symbol)
		return
	}

	nearRes, lv := l.levels.IsNearResistance(symbol)
	if nearRes && lv != nil {
		log.Printf("⚠️ %s near resistance (₹%.2f), skipping buy", symbol, lv.NearestResistance)
		return
	}
	if nearSup, lv := l.levels.IsNearSupport(symbol); nearSup && lv != nil {
		log.Printf("✅ %s near support (₹%.2f), good entry", symbol, lv.NearestSupport)
	}

	latest, _, ok := indicator.LastTwo(bars)
	if !ok {
		return
	}

	rsi := 50.0
	if latest.RSI != nil {
		rsi = *latest.RSI
	}

	now := l.clock.Now()
	take, learnConf, learnReasons := l.learning.ShouldTakeTrade(string(sig.Type), rsi, now.Hour())
	mlTake, mlProb, mlConf := l.predictor.ShouldTakeTrade(latest, now)
	combined := (learnConf + mlConf) / 2

	log.Println("🧠 Analysis:")
	log.Printf("   Learning: %.2f (%s)", learnConf, strings.Join(learnReasons, "; "))
	log.Printf("   ML: %.2f probability", mlProb)
	log.Printf("   Combined confidence: %.2f", combined)

	if !take || !mlTake {
		log.Printf("⚠️ Trade skipped for %s (low confidence)", symbol)
		reasons := append(learnReasons, fmt.Sprintf("ML probability %.2f", mlProb))
		l.notifier.Send(service.FormatSkippedTrade(symbol, sig.Type, reasons))
		return
	}

	qty := l.sizer.PositionSize(l.capital, price, symbol, combined)
	if qty <= 0 {
		log.Printf("⚠️ %s - position size is zero, skipping", symbol)
		return
	}

	if _, err := l.broker.PlaceMarketOrder(symbol, "BUY", qty); err != nil {
		log.Printf("❌ Buy order failed for %s: %v", symbol, err)
		l.notifier.Send(service.FormatError("buy "+symbol, err))
		return
	}

	pos := l.book.Open(symbol, qty, price, string(sig.Type), now)
	l.record(symbol, "BUY", qty, price, string(sig.Type), "", 0, latest)
	l.saveBook()
	l.notifier.Send(service.FormatBuy(symbol, qty, price, pos, &sig, combined))

	log.Printf("✅ BUY executed: %s %d @ ₹%.2f (%.1f%% of capital)",
		symbol, qty, price, float64(qty)*price/l.capital*100)
}

// manageExit applies the exit rules to an open position and executes
// the resulting order. A failed order leaves the book untouched so the
// exit is retried next cycle.
func (l *Loader) manageExit(symbol string, pos *model.Position, price float64, bars []model.Bar, sig model.Signal) {
	atr := indicator.GetLastATR(bars, indicator.PeriodATR)

	d := l.book.EvaluateExit(pos, price, atr, sig.Type)
	if d == nil {
		return
	}

	log.Printf("🛑 %s: %s - selling %d @ ₹%.2f", symbol, d.Reason, d.Quantity, price)

	if _, err := l.broker.PlaceMarketOrder(symbol, "SELL", d.Quantity); err != nil {
		log.Printf("❌ Sell order failed for %s, position preserved: %v", symbol, err)
		l.notifier.Send(service.FormatError("sell "+symbol, err))
		return
	}

	pnl := (price - pos.EntryPrice) * float64(d.Quantity)
	entryPrice := pos.EntryPrice

	action := "SELL"
	if d.Partial {
		action = "PARTIAL_SELL"
	}

	latest, _, _ := indicator.LastTwo(bars)
	l.record(symbol, action, d.Quantity, price, pos.SignalType, string(d.Reason), pnl, latest)

	closed := l.book.ApplyExit(symbol, *d)
	l.saveBook()
	l.notifier.Send(service.FormatSell(symbol, d.Quantity, price, entryPrice, pnl, d.Reason))

	log.Printf("💰 %s PnL: ₹%.2f", symbol, pnl)

	if closed {
		log.Println("📚 Updating learning model...")
		if err := l.learning.AnalyzeTrades(); err != nil {
			log.Printf("⚠️ Learning update failed: %v", err)
		}
		if _, err := l.predictor.Train(); err != nil {
			log.Printf("⚠️ Model training failed: %v", err)
		}
	}
}

// record appends one row to the trade history log
func (l *Loader) record(symbol, action string, qty int, price float64, signalType, reason string, pnl float64, snap model.IndicatorSnapshot) {
	rec := model.TradeRecord{
		Timestamp:  l.clock.Now(),
		Symbol:     symbol,
		Action:     action,
		Quantity:   qty,
		Price:      price,
		SignalType: signalType,
		Reason:     reason,
		PnL:        pnl,
		IsPaper:    l.broker.Paper(),
	}
	if snap.RSI != nil {
		rec.RSI = *snap.RSI
	}
	if snap.MACD != nil {
		rec.MACD = *snap.MACD
	}
	if snap.SMA5 != nil {
		rec.SMA5 = *snap.SMA5
	}
	if snap.SMA20 != nil {
		rec.SMA20 = *snap.SMA20
	}

	if err := l.tradeLog.LogTrade(rec); err != nil {
		log.Printf("⚠️ Failed to log trade: %v", err)
	}
}

func (l *Loader) saveBook() {
	if err := l.tradeLog.SavePositions(l.book.Positions()); err != nil {
		log.Printf("⚠️ Failed to save positions: %v", err)
	}
}

// allTimeStats aggregates every closed row in the trade log and the
// max drawdown of the equity curve those rows trace out from the
// configured starting capital.
func (l *Loader) allTimeStats() (model.PerfStats, float64) {
	trades, err := l.tradeLog.ReadTrades()
	if err != nil {
		log.Printf("⚠️ Failed to read trade history: %v", err)
		return model.PerfStats{}, 0
	}

	var stats model.PerfStats
	equity := []float64{l.capital}
	for _, t := range trades {
		if t.Action != "SELL" && t.Action != "PARTIAL_SELL" {
			continue
		}
		if t.PnL > 0 {
			stats.Wins++
		} else {
			stats.Losses++
		}
		stats.TotalPnL += t.PnL
		equity = append(equity, l.capital+stats.TotalPnL)
	}
	return stats, tmath.CalculateMaxDrawdown(equity)
}
