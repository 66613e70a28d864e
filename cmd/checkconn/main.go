package main

import (
	"context"
	"log"
	"os"
	"time"

	"equitySpikeBot/config"
	"equitySpikeBot/internal/adapters/alpacabroker"
	"equitySpikeBot/internal/adapters/fmp"
	"equitySpikeBot/internal/adapters/logger"
)

// checkconn verifies both external dependencies end to end: the market data
// API key and the brokerage session. Run it before starting the bot on a new
// environment.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := false

	// Market data: most-actives exercises authentication and payload parsing.
	mkt, err := fmp.New(fmp.Config{
		BaseURL:        cfg.FMPBaseURL,
		APIKey:         cfg.FMPAPIKey,
		CandidateLimit: cfg.CandidateLimit,
		Location:       cfg.Location,
		Logger:         appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}
	symbols, err := mkt.MostActiveSymbols(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Market data check FAILED")
		failed = true
	} else {
		appLogger.Info(ctx, "Market data check OK", map[string]interface{}{"candidates": len(symbols)})
		if len(symbols) > 0 {
			series, err := mkt.IntradayBars(ctx, symbols[0], cfg.LookbackBars)
			if err != nil {
				appLogger.Error(ctx, err, "Intraday bars check FAILED", map[string]interface{}{"symbol": symbols[0]})
				failed = true
			} else {
				appLogger.Info(ctx, "Intraday bars check OK", map[string]interface{}{
					"symbol": symbols[0],
					"bars":   series.Len(),
				})
			}
		}
	}

	// Brokerage: Connect validates credentials, then pull account state.
	broker, err := alpacabroker.New(alpacabroker.Config{
		Host:      cfg.BrokerHost,
		Port:      cfg.BrokerPort,
		ClientID:  cfg.BrokerClientID,
		APIKey:    cfg.BrokerAPIKey,
		APISecret: cfg.BrokerAPISecret,
		Logger:    appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize broker client: %v", err)
	}
	if err := broker.Connect(ctx); err != nil {
		appLogger.Error(ctx, err, "Broker connection check FAILED")
		failed = true
	} else {
		defer broker.Disconnect()
		balance, err := broker.AccountBalance(ctx)
		if err != nil {
			appLogger.Error(ctx, err, "Account balance check FAILED")
			failed = true
		} else {
			appLogger.Info(ctx, "Broker check OK", map[string]interface{}{"balance": balance})
		}
		positions, err := broker.OpenPositions(ctx)
		if err != nil {
			appLogger.Error(ctx, err, "Open positions check FAILED")
			failed = true
		} else {
			appLogger.Info(ctx, "Positions check OK", map[string]interface{}{"open": len(positions)})
		}
	}

	if failed {
		os.Exit(1)
	}
	appLogger.Info(ctx, "All connectivity checks passed")
}
