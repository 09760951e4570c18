package service

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"tradex-go/internal/model"
)

const minTradesForSignalRate = 5

// LearningService replays the full trade history into aggregate
// insights and scores prospective trades against them. The whole
// analysis is recomputed from scratch every pass, which keeps it
// idempotent: the same trade history always yields the same insights.
type LearningService struct {
	tradeLog     *TradeLogService
	insightsPath string

	insights model.LearningInsights

	// thresholds copied from config at construction
	baseOversold float64
	baseSLPct    float64
	minTrades    int
	gate         float64
}

func NewLearningService(tradeLog *TradeLogService, dataDir string, baseOversold, baseSLPct float64, minTrades int, gate float64) *LearningService {
	s := &LearningService{
		tradeLog:     tradeLog,
		insightsPath: filepath.Join(dataDir, "learning_data.json"),
		insights:     defaultInsights(baseOversold),
		baseOversold: baseOversold,
		baseSLPct:    baseSLPct,
		minTrades:    minTrades,
		gate:         gate,
	}
	s.loadInsights()
	return s
}

func defaultInsights(baseOversold float64) model.LearningInsights {
	return model.LearningInsights{
		SignalPerformance: map[string]model.PerfStats{},
		ExitPerformance:   map[string]model.ExitStats{},
		SymbolPerformance: map[string]model.PerfStats{},
		BestRSIBand:       model.RSIBand{Low: math.Max(20, baseOversold-5), High: 40},
		Adjustments:       map[string]float64{},
	}
}

func (s *LearningService) loadInsights() {
	data, err := os.ReadFile(s.insightsPath)
	if err != nil {
		return
	}
	var insights model.LearningInsights
	if err := json.Unmarshal(data, &insights); err != nil {
		log.Printf("⚠️ [Learning] Corrupt insights file, starting fresh: %v", err)
		return
	}
	if insights.SignalPerformance == nil {
		insights.SignalPerformance = map[string]model.PerfStats{}
	}
	if insights.ExitPerformance == nil {
		insights.ExitPerformance = map[string]model.ExitStats{}
	}
	if insights.SymbolPerformance == nil {
		insights.SymbolPerformance = map[string]model.PerfStats{}
	}
	if insights.Adjustments == nil {
		insights.Adjustments = map[string]float64{}
	}
	s.insights = insights
}

func (s *LearningService) saveInsights() error {
	data, err := json.MarshalIndent(s.insights, "", "  ")
	if err != nil {
		return fmt.Errorf("encode insights: %w", err)
	}
	if err := os.WriteFile(s.insightsPath, data, 0o644); err != nil {
		return fmt.Errorf("write insights: %w", err)
	}
	return nil
}

// Insights returns the current aggregate view
func (s *LearningService) Insights() model.LearningInsights {
	return s.insights
}

// AnalyzeTrades rebuilds the insights from the complete trade history
func (s *LearningService) AnalyzeTrades() error {
	trades, err := s.tradeLog.ReadTrades()
	if err != nil {
		return fmt.Errorf("analyze trades: %w", err)
	}
	if len(trades) < 2 {
		log.Println("📚 [Learning] Not enough trades to analyze")
		return nil
	}

	var sells []model.TradeRecord
	for _, t := range trades {
		if t.Action == "SELL" || t.Action == "PARTIAL_SELL" {
			sells = append(sells, t)
		}
	}

	insights := defaultInsights(s.baseOversold)
	insights.GeneratedAt = time.Now()
	insights.TotalTradesAnalyzed = len(sells)

	var winningRSI, losingRSI []float64
	hourPnL := map[int]float64{}

	for _, sell := range sells {
		win := sell.PnL > 0

		sig := insights.SignalPerformance[sell.SignalType]
		sig.TotalPnL += sell.PnL
		if win {
			sig.Wins++
		} else {
			sig.Losses++
		}
		insights.SignalPerformance[sell.SignalType] = sig

		exit := insights.ExitPerformance[sell.Reason]
		exit.Count++
		exit.AvgPnL = (exit.AvgPnL*float64(exit.Count-1) + sell.PnL) / float64(exit.Count)
		insights.ExitPerformance[sell.Reason] = exit

		sym := insights.SymbolPerformance[sell.Symbol]
		sym.TotalPnL += sell.PnL
		if win {
			sym.Wins++
		} else {
			sym.Losses++
		}
		insights.SymbolPerformance[sell.Symbol] = sym

		if sell.RSI > 0 {
			if win {
				winningRSI = append(winningRSI, sell.RSI)
			} else {
				losingRSI = append(losingRSI, sell.RSI)
			}
		}

		hourPnL[sell.Timestamp.Hour()] += sell.PnL
	}

	if len(winningRSI) > 0 {
		insights.WinningRSIAvg, _ = stats.Mean(winningRSI)
		lo, _ := stats.Min(winningRSI)
		hi, _ := stats.Max(winningRSI)
		insights.BestRSIBand = model.RSIBand{
			Low:  math.Max(20, lo-5),
			High: math.Min(50, hi+5),
		}
	}
	if len(losingRSI) > 0 {
		insights.LosingRSIAvg, _ = stats.Mean(losingRSI)
	}

	// Rank hours by total PnL: top 3 best, bottom 2 worst
	if len(hourPnL) > 0 {
		hours := make([]int, 0, len(hourPnL))
		for h := range hourPnL {
			hours = append(hours, h)
		}
		sort.Slice(hours, func(i, j int) bool { return hourPnL[hours[i]] > hourPnL[hours[j]] })

		top := 3
		if top > len(hours) {
			top = len(hours)
		}
		insights.BestHours = append([]int{}, hours[:top]...)

		bottom := 2
		if bottom > len(hours) {
			bottom = len(hours)
		}
		insights.WorstHours = append([]int{}, hours[len(hours)-bottom:]...)
	}

	s.insights = insights
	s.generateAdjustments()

	if err := s.saveInsights(); err != nil {
		return err
	}
	log.Printf("📚 [Learning] Analyzed %d closed trades", len(sells))
	return nil
}

// generateAdjustments derives parameter suggestions from the exit mix
func (s *LearningService) generateAdjustments() {
	if s.insights.BestRSIBand.Low != s.baseOversold {
		s.insights.Adjustments["rsi_oversold"] = math.Floor(s.insights.BestRSIBand.Low)
	}

	slStats := s.insights.ExitPerformance[string(model.ExitStopLoss)]
	targetStats := s.insights.ExitPerformance[string(model.ExitTargetHit)]
	totalExits := slStats.Count + targetStats.Count
	if slStats.Count == 0 || targetStats.Count == 0 || totalExits == 0 {
		return
	}

	slRatio := float64(slStats.Count) / float64(totalExits)
	if slRatio > 0.5 {
		newSL := math.Min(0.08, s.baseSLPct+0.005)
		s.insights.Adjustments["sl_pct"] = newSL
		log.Printf("📚 [Learning] Widening SL to %.1f%% (too many SL hits)", newSL*100)
	} else if slRatio < 0.2 {
		newSL := math.Max(0.02, s.baseSLPct-0.005)
		s.insights.Adjustments["sl_pct"] = newSL
		log.Printf("📚 [Learning] Tightening SL to %.1f%% (SL rarely hit)", newSL*100)
	}
}

// ShouldTakeTrade scores a prospective entry against the learned
// aggregates. Returns the decision, the numeric confidence, and the
// reasons behind any adjustment.
func (s *LearningService) ShouldTakeTrade(signalType string, rsi float64, hour int) (bool, float64, []string) {
	confidence := 1.0
	var reasons []string

	if perf, ok := s.insights.SignalPerformance[signalType]; ok && perf.Total() >= minTradesForSignalRate {
		winRate := perf.WinRate()
		if winRate < 0.4 {
			confidence *= 0.7
			reasons = append(reasons, fmt.Sprintf("%s has low win rate (%.0f%%)", signalType, winRate*100))
		} else if winRate > 0.6 {
			confidence *= 1.2
			reasons = append(reasons, fmt.Sprintf("%s has high win rate (%.0f%%)", signalType, winRate*100))
		}
	}

	band := s.insights.BestRSIBand
	if rsi < band.Low || rsi > band.High {
		confidence *= 0.8
		reasons = append(reasons, fmt.Sprintf("RSI %.1f outside optimal range [%.0f, %.0f]", rsi, band.Low, band.High))
	} else {
		confidence *= 1.1
		reasons = append(reasons, fmt.Sprintf("RSI %.1f in optimal range", rsi))
	}

	if containsInt(s.insights.WorstHours, hour) {
		confidence *= 0.7
		reasons = append(reasons, fmt.Sprintf("Hour %d historically poor", hour))
	} else if containsInt(s.insights.BestHours, hour) {
		confidence *= 1.2
		reasons = append(reasons, fmt.Sprintf("Hour %d historically good", hour))
	}

	return confidence >= s.gate, confidence, reasons
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
