package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Broker credentials (Angel One SmartAPI)
	BrokerAPIKey     string
	BrokerClientCode string
	BrokerMPIN       string
	BrokerTOTPSecret string
	BrokerBaseURL    string

	// Telegram
	TelegramBotToken string
	TelegramChatID   string

	// Trading universe and capital
	Symbols        []string
	TradingCapital float64
	PaperTrading   bool
	MaxPositions   int

	// Risk parameters
	StopLossPct      float64
	TargetPct        float64
	TrailingStopPct  float64
	MaxDailyLossPct  float64
	DefaultRiskFrac  float64 // position fraction used before Kelly has history
	KellyCapFraction float64

	// Strategy
	StrategyVersion   string  // V1 conservative, V2 aggressive
	RSIOversold       float64
	RSIOverbought     float64
	RSIOverboughtV2SB float64 // relaxed ceiling under a STRONG_BULLISH trend
	RSIOverboughtV2B  float64 // relaxed ceiling under a BULLISH trend
	VolumeMultiplier  float64
	MaxPositionPct    float64

	// Only open new positions inside the high-liquidity session windows
	TradeOnlyHighLiquidity bool

	// Confidence / learning
	ConfidenceGate       float64
	MLThreshold          float64
	MinTradesForKelly    int
	MinTradesForInsights int
	MinSamplesForModel   int

	// Loop timing (seconds)
	CheckInterval        int
	PositionSyncInterval int
	MarketClosedSleep    int

	// Persistence
	DataDir string
	LogFile string
}

var AppConfig *Config

// Load reads environment variables and initializes the global config
func Load() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	AppConfig = &Config{
		BrokerAPIKey:     getEnv("BROKER_API_KEY", ""),
		BrokerClientCode: getEnv("BROKER_CLIENT_CODE", ""),
		BrokerMPIN:       getEnv("BROKER_MPIN", ""),
		BrokerTOTPSecret: getEnv("BROKER_TOTP_SECRET", ""),
		BrokerBaseURL:    getEnv("BROKER_BASE_URL", "https://apiconnect.angelone.in"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		Symbols:        getEnvAsSlice("SYMBOLS", "GOLDBEES,SILVERBEES,NIFTYBEES,BANKBEES"),
		TradingCapital: getEnvAsFloat("TRADING_CAPITAL", 100000),
		PaperTrading:   getEnvAsBool("PAPER_TRADING", true),
		MaxPositions:   getEnvAsInt("MAX_POSITIONS", 2),

		StopLossPct:      getEnvAsFloat("STOP_LOSS_PCT", 0.05),
		TargetPct:        getEnvAsFloat("TARGET_PCT", 0.08),
		TrailingStopPct:  getEnvAsFloat("TRAILING_SL_PCT", 0.03),
		MaxDailyLossPct:  getEnvAsFloat("MAX_DAILY_LOSS_PCT", 0.10),
		DefaultRiskFrac:  getEnvAsFloat("DEFAULT_RISK_FRACTION", 0.50),
		KellyCapFraction: getEnvAsFloat("KELLY_CAP_FRACTION", 0.25),

		StrategyVersion:   getEnv("STRATEGY_VERSION", "V2"),
		RSIOversold:       getEnvAsFloat("RSI_OVERSOLD", 35),
		RSIOverbought:     getEnvAsFloat("RSI_OVERBOUGHT", 70),
		RSIOverboughtV2SB: getEnvAsFloat("RSI_OVERBOUGHT_V2_STRONG_BULLISH", 80),
		RSIOverboughtV2B:  getEnvAsFloat("RSI_OVERBOUGHT_V2_BULLISH", 75),
		VolumeMultiplier:  getEnvAsFloat("VOLUME_MULTIPLIER", 1.0),
		MaxPositionPct:    getEnvAsFloat("MAX_POSITION_PCT", 0.50),

		TradeOnlyHighLiquidity: getEnvAsBool("TRADE_ONLY_HIGH_LIQUIDITY", false),

		ConfidenceGate:       getEnvAsFloat("CONFIDENCE_GATE", 0.8),
		MLThreshold:          getEnvAsFloat("ML_THRESHOLD", 0.55),
		MinTradesForKelly:    getEnvAsInt("MIN_TRADES_FOR_KELLY", 10),
		MinTradesForInsights: getEnvAsInt("MIN_TRADES_FOR_INSIGHTS", 5),
		MinSamplesForModel:   getEnvAsInt("MIN_SAMPLES_FOR_MODEL", 20),

		CheckInterval:        getEnvAsInt("CHECK_INTERVAL", 60),
		PositionSyncInterval: getEnvAsInt("POSITION_SYNC_INTERVAL", 300),
		MarketClosedSleep:    getEnvAsInt("MARKET_CLOSED_SLEEP", 300),

		DataDir: getEnv("DATA_DIR", "data"),
		LogFile: getEnv("LOG_FILE", "logs/tradex.log"),
	}

	log.Println("✅ Configuration loaded successfully")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return nil
	}
	// Split by comma
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️ Invalid float for %s, using default %v", key, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid int for %s, using default %v", key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("⚠️ Invalid bool for %s, using default %v", key, defaultValue)
		return defaultValue
	}
	return b
}
