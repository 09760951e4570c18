package model

import "time"

// SignalType represents the action recommended by the strategy
type SignalType string

const (
	SignalStrongBuy SignalType = "STRONG_BUY"
	SignalBuy       SignalType = "BUY"
	SignalSell      SignalType = "SELL"
	SignalHold      SignalType = "HOLD"
	SignalWait      SignalType = "WAIT"
)

// TrendLabel represents the combined multi-timeframe trend reading
type TrendLabel string

const (
	TrendStrongBullish TrendLabel = "STRONG_BULLISH"
	TrendBullish       TrendLabel = "BULLISH"
	TrendNeutral       TrendLabel = "NEUTRAL"
	TrendBearish       TrendLabel = "BEARISH"
)

// TimeframeTrend is the per-timeframe classification before combination
type TimeframeTrend string

const (
	TimeframeBullish TimeframeTrend = "BULLISH"
	TimeframeBearish TimeframeTrend = "BEARISH"
	TimeframeNeutral TimeframeTrend = "NEUTRAL"
)

// ExitReason identifies why a position was closed or reduced
type ExitReason string

const (
	ExitStopLoss      ExitReason = "STOP LOSS"
	ExitTrailingStop  ExitReason = "TRAILING SL"
	ExitTargetHit     ExitReason = "TARGET HIT"
	ExitPartialTarget ExitReason = "PARTIAL TARGET (50%)"
	ExitTrendReversal ExitReason = "TREND REVERSAL"
)

// Bar represents one OHLCV candle
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// IndicatorSnapshot holds every indicator value for a single bar.
// Fields are pointers so a warm-up gap is distinguishable from a zero.
type IndicatorSnapshot struct {
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
	SMA5      *float64 `json:"sma_5,omitempty"`
	SMA20     *float64 `json:"sma_20,omitempty"`
	SMA50     *float64 `json:"sma_50,omitempty"`
	EMA9      *float64 `json:"ema_9,omitempty"`
	EMA21     *float64 `json:"ema_21,omitempty"`
	RSI       *float64 `json:"rsi,omitempty"`
	MACD      *float64 `json:"macd,omitempty"`
	MACDSig   *float64 `json:"macd_signal,omitempty"`
	MACDHist  *float64 `json:"macd_hist,omitempty"`
	BBUpper   *float64 `json:"bb_upper,omitempty"`
	BBMiddle  *float64 `json:"bb_middle,omitempty"`
	BBLower   *float64 `json:"bb_lower,omitempty"`
	ATR       *float64 `json:"atr,omitempty"`
	VolumeSMA *float64 `json:"volume_sma,omitempty"`
}

// Signal is the state machine output for one evaluation
type Signal struct {
	Symbol  string     `json:"symbol"`
	Type    SignalType `json:"type"`
	Reasons []string   `json:"reasons"`
	Trend   TrendLabel `json:"trend"`
}

// Position tracks one open long position for a symbol
type Position struct {
	Symbol       string    `json:"symbol"`
	Quantity     int       `json:"quantity"`
	EntryPrice   float64   `json:"entry_price"`
	EntryTime    time.Time `json:"entry_time"`
	StopLoss     float64   `json:"stop_loss"`
	Target       float64   `json:"target"`
	HighestPrice float64   `json:"highest_price"`
	TrailingStop float64   `json:"trailing_stop"`
	PartialDone  bool      `json:"partial_done"`
	SignalType   string    `json:"signal_type"`
	BotEntered   bool      `json:"bot_entered"`
}

// TradeRecord is one row of the trade history log
type TradeRecord struct {
	Timestamp  time.Time
	Symbol     string
	Action     string // BUY, SELL, PARTIAL_SELL
	Quantity   int
	Price      float64
	SignalType string
	Reason     string
	PnL        float64
	RSI        float64
	MACD       float64
	SMA5       float64
	SMA20      float64
	IsPaper    bool
}

// PerfStats aggregates win/loss outcomes for one grouping key
type PerfStats struct {
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	TotalPnL float64 `json:"total_pnl"`
}

// Total returns the number of closed trades behind the stats
func (p PerfStats) Total() int { return p.Wins + p.Losses }

// WinRate returns the fraction of wins, 0 when empty
func (p PerfStats) WinRate() float64 {
	if p.Total() == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Total())
}

// ExitStats aggregates outcomes per exit reason
type ExitStats struct {
	Count  int     `json:"count"`
	AvgPnL float64 `json:"avg_pnl"`
}

// RSIBand is the profitable RSI entry range discovered from history
type RSIBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// LearningInsights is the persisted output of a full trade-history replay
type LearningInsights struct {
	GeneratedAt         time.Time            `json:"generated_at"`
	TotalTradesAnalyzed int                  `json:"total_trades_analyzed"`
	SignalPerformance   map[string]PerfStats `json:"signal_performance"`
	ExitPerformance     map[string]ExitStats `json:"exit_performance"`
	SymbolPerformance   map[string]PerfStats `json:"symbol_performance"`
	WinningRSIAvg       float64              `json:"winning_rsi_avg"`
	LosingRSIAvg        float64              `json:"losing_rsi_avg"`
	BestRSIBand         RSIBand              `json:"best_rsi_band"`
	BestHours           []int                `json:"best_hours"`
	WorstHours          []int                `json:"worst_hours"`
	Adjustments         map[string]float64   `json:"adjustments"`
}
