package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TimeOfDay is a session boundary expressed as minutes since local midnight.
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// String renders the time of day back as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Config holds all application configuration. It is read once at startup
// and passed by reference; no component mutates it.
type Config struct {
	// Market data provider (FMP-style HTTP API)
	FMPAPIKey      string
	FMPBaseURL     string
	CandidateLimit int // max most-active symbols per scan cycle
	LookbackBars   int // intraday bars fetched per symbol

	// Brokerage
	BrokerHost      string
	BrokerPort      int
	BrokerClientID  int
	BrokerAPIKey    string
	BrokerAPISecret string

	// Signal parameters
	VolumeSpikeMultiplier float64 // latest volume vs trailing average, e.g. 4.0
	PriceChangeThreshold  float64 // intra-bar gain, e.g. 0.007 for 0.7%
	MinStockPrice         float64
	MaxStockPrice         float64

	// Position sizing
	PositionSize int64 // shares per entry
	MaxPositions int   // concurrent position cap

	// Session times in the exchange's local timezone
	MarketOpen  TimeOfDay
	MarketClose TimeOfDay
	ExitTime    TimeOfDay // end-of-day liquidation time
	Location    *time.Location

	// Loop cadence
	ScanInterval time.Duration // between scan cycles while the market is open
	IdleInterval time.Duration // poll interval while the market is closed
	SymbolPacing time.Duration // throttle between candidate symbols

	// Infrastructure
	DBPath        string
	DashboardAddr string
	LogLevel      string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Market data provider
	cfg.FMPAPIKey = getEnv("FMP_API_KEY", "")
	if cfg.FMPAPIKey == "" {
		errs = append(errs, "FMP_API_KEY must be set")
	}
	cfg.FMPBaseURL = getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/stable")
	cfg.CandidateLimit = getEnvAsInt("CANDIDATE_LIMIT", 20)
	if cfg.CandidateLimit <= 0 {
		errs = append(errs, "CANDIDATE_LIMIT must be positive")
	}
	cfg.LookbackBars = getEnvAsInt("LOOKBACK_BARS", 30)
	if cfg.LookbackBars < 21 {
		errs = append(errs, "LOOKBACK_BARS must be at least 21 (1 latest + 20 for the trailing average)")
	}

	// Brokerage
	cfg.BrokerHost = getEnv("BROKER_HOST", "paper-api.alpaca.markets")
	cfg.BrokerPort = getEnvAsInt("BROKER_PORT", 443)
	if cfg.BrokerPort <= 0 || cfg.BrokerPort > 65535 {
		errs = append(errs, "BROKER_PORT must be a valid TCP port")
	}
	cfg.BrokerClientID = getEnvAsInt("BROKER_CLIENT_ID", 1)
	cfg.BrokerAPIKey = getEnv("BROKER_API_KEY", "")
	cfg.BrokerAPISecret = getEnv("BROKER_API_SECRET", "")
	if cfg.BrokerAPIKey == "" {
		errs = append(errs, "BROKER_API_KEY must be set")
	}
	if cfg.BrokerAPISecret == "" {
		errs = append(errs, "BROKER_API_SECRET must be set")
	}

	// Signal parameters
	cfg.VolumeSpikeMultiplier, err = getEnvAsFloatRequired("VOLUME_SPIKE_MULTIPLIER", 4.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid VOLUME_SPIKE_MULTIPLIER: %v", err))
	} else if cfg.VolumeSpikeMultiplier <= 0 {
		errs = append(errs, "VOLUME_SPIKE_MULTIPLIER must be positive")
	}

	cfg.PriceChangeThreshold, err = getEnvAsFloatRequired("PRICE_CHANGE_THRESHOLD", 0.007)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PRICE_CHANGE_THRESHOLD: %v", err))
	} else if cfg.PriceChangeThreshold <= 0 {
		errs = append(errs, "PRICE_CHANGE_THRESHOLD must be positive")
	}

	cfg.MinStockPrice = getEnvAsFloat("MIN_STOCK_PRICE", 5.0)
	cfg.MaxStockPrice = getEnvAsFloat("MAX_STOCK_PRICE", 500.0)
	if cfg.MinStockPrice <= 0 || cfg.MaxStockPrice <= cfg.MinStockPrice {
		errs = append(errs, "price range must satisfy 0 < MIN_STOCK_PRICE < MAX_STOCK_PRICE")
	}

	// Position sizing
	positionSize, sizeErr := getEnvAsIntRequired("POSITION_SIZE", 10)
	if sizeErr != nil {
		errs = append(errs, fmt.Sprintf("invalid POSITION_SIZE: %v", sizeErr))
	} else if positionSize <= 0 {
		errs = append(errs, "POSITION_SIZE must be positive")
	}
	cfg.PositionSize = int64(positionSize)

	cfg.MaxPositions, err = getEnvAsIntRequired("MAX_POSITIONS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_POSITIONS: %v", err))
	} else if cfg.MaxPositions <= 0 {
		errs = append(errs, "MAX_POSITIONS must be positive")
	}

	// Session times
	cfg.MarketOpen, err = ParseTimeOfDay(getEnv("MARKET_OPEN", "09:30"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_OPEN: %v", err))
	}
	cfg.MarketClose, err = ParseTimeOfDay(getEnv("MARKET_CLOSE", "16:00"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_CLOSE: %v", err))
	}
	cfg.ExitTime, err = ParseTimeOfDay(getEnv("EXIT_TIME", "15:45"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXIT_TIME: %v", err))
	}
	if cfg.MarketOpen >= cfg.MarketClose {
		errs = append(errs, "MARKET_OPEN must be before MARKET_CLOSE")
	}
	if cfg.ExitTime <= cfg.MarketOpen || cfg.ExitTime > cfg.MarketClose {
		errs = append(errs, "EXIT_TIME must fall inside the market session")
	}

	tzName := getEnv("MARKET_TIMEZONE", "America/New_York")
	cfg.Location, err = time.LoadLocation(tzName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARKET_TIMEZONE %q: %v", tzName, err))
	}

	// Loop cadence
	scanSec := getEnvAsInt("SCAN_INTERVAL_SECONDS", 60)
	if scanSec <= 0 {
		errs = append(errs, "SCAN_INTERVAL_SECONDS must be positive")
	}
	cfg.ScanInterval = time.Duration(scanSec) * time.Second

	idleSec := getEnvAsInt("IDLE_INTERVAL_SECONDS", 300)
	if idleSec <= 0 {
		errs = append(errs, "IDLE_INTERVAL_SECONDS must be positive")
	}
	cfg.IdleInterval = time.Duration(idleSec) * time.Second

	pacingSec := getEnvAsInt("SYMBOL_PACING_SECONDS", 1)
	if pacingSec < 0 {
		errs = append(errs, "SYMBOL_PACING_SECONDS cannot be negative")
	}
	cfg.SymbolPacing = time.Duration(pacingSec) * time.Second

	// Infrastructure
	cfg.DBPath = getEnv("DB_PATH", "./data/trading_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.DashboardAddr = getEnv("DASHBOARD_ADDR", ":5000")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
