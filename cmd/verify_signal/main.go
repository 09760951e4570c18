package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"tradex-go/internal/config"
	"tradex-go/internal/indicator"
	"tradex-go/internal/service"
)

func main() {
	symbol := flag.String("symbol", "NIFTYBEES", "symbol to evaluate")
	flag.Parse()

	config.Load()
	cfg := config.AppConfig

	log.Println("🧪 Starting Signal Verification...")

	data := service.NewMarketDataService("")
	trendService := service.NewTrendService(data)
	strategyService := service.NewStrategyService(service.StrategyParams{
		Version:           cfg.StrategyVersion,
		RSIOversold:       cfg.RSIOversold,
		RSIOverbought:     cfg.RSIOverbought,
		RSIOverboughtV2SB: cfg.RSIOverboughtV2SB,
		RSIOverboughtV2B:  cfg.RSIOverboughtV2B,
		VolumeMultiplier:  cfg.VolumeMultiplier,
	})

	log.Printf("🔍 Evaluating %s...", *symbol)

	trend := trendService.Analyze(*symbol)

	bars, err := data.FetchBars(*symbol, "5d", "5m")
	if err != nil {
		log.Fatalf("❌ Failed to fetch bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("❌ No data for %s", *symbol)
	}

	signal := strategyService.EvaluateBars(*symbol, bars, trend)

	jsonData, _ := json.MarshalIndent(signal, "", "  ")
	fmt.Println(string(jsonData))

	latest, _, ok := indicator.LastTwo(bars)
	if !ok {
		log.Println("⚠️  Not enough bars for a full indicator snapshot")
		return
	}

	fmt.Println("\n✅ Verification Successful!")
	fmt.Printf("Trend: %s\n", trend)
	fmt.Printf("Close: %.2f\n", latest.Close)
	if latest.RSI != nil {
		fmt.Printf("RSI: %.2f\n", *latest.RSI)
	}
	if latest.MACD != nil && latest.MACDSig != nil {
		fmt.Printf("MACD: %.4f (signal %.4f)\n", *latest.MACD, *latest.MACDSig)
	}
	if latest.SMA5 != nil && latest.SMA20 != nil {
		fmt.Printf("SMA5/SMA20: %.2f / %.2f\n", *latest.SMA5, *latest.SMA20)
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}
	fmt.Printf("EMA9/EMA21: %.2f / %.2f\n",
		indicator.GetLastEMA(closes, indicator.PeriodEMAFast),
		indicator.GetLastEMA(closes, indicator.PeriodEMASlow))
	fmt.Printf("ATR: %.4f\n", indicator.GetLastATR(bars, indicator.PeriodATR))
	fmt.Printf("Volume ratio: %.2fx average\n", indicator.VolumeRatio(volumes, indicator.PeriodVolumeSMA))
}
