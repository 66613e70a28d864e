package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"equitySpikeBot/config"
	"equitySpikeBot/internal/adapters/fmp"
	"equitySpikeBot/internal/adapters/logger"
	"equitySpikeBot/internal/utils"
)

func main() {
	symbol := flag.String("symbol", "", "stock symbol to fetch (required)")
	limit := flag.Int("limit", 0, "number of intraday bars (defaults to LOOKBACK_BARS)")
	outDir := flag.String("out", "data", "output directory for the CSV file")
	flag.Parse()

	if *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Market Data Client
	client, err := fmp.New(fmp.Config{
		BaseURL:        cfg.FMPBaseURL,
		APIKey:         cfg.FMPAPIKey,
		CandidateLimit: cfg.CandidateLimit,
		Location:       cfg.Location,
		Logger:         appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}

	bars := *limit
	if bars <= 0 {
		bars = cfg.LookbackBars
	}

	appLogger.Info(ctx, "Fetching intraday bars", map[string]interface{}{"symbol": *symbol, "limit": bars})
	series, err := client.IntradayBars(ctx, *symbol, bars)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching bars")
		os.Exit(1)
	}
	appLogger.Info(ctx, "Fetched bars", map[string]interface{}{"count": series.Len()})

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		appLogger.Error(ctx, err, "Error creating output directory")
		os.Exit(1)
	}
	filename := filepath.Join(*outDir, fmt.Sprintf("%s_1min_%s.csv", *symbol, time.Now().Format("20060102")))
	if err := utils.WriteBarsToCSV(series, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		os.Exit(1)
	}
	appLogger.Info(ctx, "Saved bars", map[string]interface{}{"filename": filename})
}
