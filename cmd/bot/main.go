package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradex-go/internal/config"
	"tradex-go/internal/loader"
	"tradex-go/internal/logging"
	"tradex-go/internal/monitor"
	"tradex-go/internal/service"
)

func main() {
	// Global panic recovery
	defer service.RecoverAndLog("main")

	// Load configuration
	config.Load()
	cfg := config.AppConfig

	if closer, err := logging.Setup(cfg.LogFile); err != nil {
		log.Printf("⚠️ File logging disabled: %v", err)
	} else {
		defer closer.Close()
	}

	log.Println("🔧 Initializing services...")

	clock := service.NewSessionClock()
	data := service.NewMarketDataService("")
	trendService := service.NewTrendService(data)
	levelsService := service.NewLevelsService(data)

	strategyService := service.NewStrategyService(service.StrategyParams{
		Version:           cfg.StrategyVersion,
		RSIOversold:       cfg.RSIOversold,
		RSIOverbought:     cfg.RSIOverbought,
		RSIOverboughtV2SB: cfg.RSIOverboughtV2SB,
		RSIOverboughtV2B:  cfg.RSIOverboughtV2B,
		VolumeMultiplier:  cfg.VolumeMultiplier,
	})

	tradeLog, err := service.NewTradeLogService(cfg.DataDir)
	if err != nil {
		log.Fatalf("❌ Failed to initialize trade log: %v", err)
	}

	learningService := service.NewLearningService(
		tradeLog, cfg.DataDir, cfg.RSIOversold, cfg.StopLossPct, cfg.MinTradesForInsights, cfg.ConfidenceGate)
	predictorService := service.NewPredictorService(
		tradeLog, cfg.DataDir, cfg.MinSamplesForModel, cfg.MLThreshold)
	sizerService := service.NewSizerService(
		tradeLog, cfg.MinTradesForKelly, cfg.DefaultRiskFrac, cfg.KellyCapFraction, cfg.MaxPositionPct)

	brokerService := service.NewBrokerService()
	if !brokerService.Paper() {
		if err := brokerService.Login(); err != nil {
			log.Fatalf("❌ Broker login failed: %v", err)
		}
	}
	brokerService.LoadSymbolTokens(cfg.Symbols)

	notifier := service.NewNotifierService()

	book := monitor.NewManager(cfg.StopLossPct, cfg.TargetPct, cfg.TrailingStopPct, cfg.MaxPositions)
	positions, err := tradeLog.LoadPositions()
	if err != nil {
		log.Printf("⚠️ Failed to load saved positions: %v", err)
	}
	book.Load(positions)

	log.Println("📚 Initializing learning engine...")
	if err := learningService.AnalyzeTrades(); err != nil {
		log.Printf("⚠️ Learning analysis failed: %v", err)
	}
	if _, err := predictorService.Train(); err != nil {
		log.Printf("⚠️ Model training failed: %v", err)
	}

	log.Println("✅ All services initialized successfully")

	mode := "LIVE TRADING"
	if cfg.PaperTrading {
		mode = "PAPER TRADING"
	}
	log.Println("📌 Configuration:")
	log.Printf("   Symbols: %v", cfg.Symbols)
	log.Printf("   Capital: ₹%.2f", cfg.TradingCapital)
	log.Printf("   Stop Loss: %.1f%% | Target: %.1f%% | Trailing SL: %.1f%%",
		cfg.StopLossPct*100, cfg.TargetPct*100, cfg.TrailingStopPct*100)
	log.Printf("   Max Daily Loss: %.1f%%", cfg.MaxDailyLossPct*100)
	log.Printf("   Check Interval: %ds", cfg.CheckInterval)
	log.Printf("   Mode: %s", mode)

	notifier.Send(service.FormatStartup(cfg.Symbols, cfg.TradingCapital, cfg.PaperTrading))

	loaderService := loader.NewLoader(
		clock,
		data,
		brokerService,
		trendService,
		strategyService,
		levelsService,
		learningService,
		predictorService,
		sizerService,
		tradeLog,
		notifier,
		book,
	)

	// First pass right away instead of waiting for the first tick
	loaderService.Poll()

	cronRunner := loaderService.Start()

	log.Println("🚀 Bot is now running...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Received shutdown signal...")

	stopCtx := cronRunner.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Println("⚠️  Shutdown timeout - forcing exit")
	}

	if err := tradeLog.SavePositions(book.Positions()); err != nil {
		log.Printf("⚠️ Failed to save positions on shutdown: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
