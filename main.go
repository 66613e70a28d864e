package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"time"

	"equitySpikeBot/config"
	"equitySpikeBot/internal/adapters/alpacabroker"
	"equitySpikeBot/internal/adapters/fmp"
	"equitySpikeBot/internal/adapters/logger"
	"equitySpikeBot/internal/adapters/sqlite"
	"equitySpikeBot/internal/app"
	"equitySpikeBot/internal/dashboard"
	"equitySpikeBot/internal/risk"
	"equitySpikeBot/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Order Journal (Database Adapter)
	journal, err := sqlite.NewJournal(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize order journal")
		log.Fatalf("FATAL: Failed to initialize order journal: %v", err) // Also log to stderr
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing order journal")
		}
	}()
	appLogger.Info(context.Background(), "Order journal initialized")

	// 4. Initialize Market Data Client (FMP Adapter)
	marketData, err := fmp.New(fmp.Config{
		BaseURL:        cfg.FMPBaseURL,
		APIKey:         cfg.FMPAPIKey,
		CandidateLimit: cfg.CandidateLimit,
		Location:       cfg.Location,
		Logger:         appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data client")
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}
	appLogger.Info(context.Background(), "Market data client initialized")

	// 5. Initialize Broker Client (Alpaca Adapter)
	broker, err := alpacabroker.New(alpacabroker.Config{
		Host:      cfg.BrokerHost,
		Port:      cfg.BrokerPort,
		ClientID:  cfg.BrokerClientID,
		APIKey:    cfg.BrokerAPIKey,
		APISecret: cfg.BrokerAPISecret,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize broker client")
		log.Fatalf("FATAL: Failed to initialize broker client: %v", err)
	}

	// An unreachable brokerage is fatal: the bot must never scan without the
	// ability to liquidate.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	if err := broker.Connect(connectCtx); err != nil {
		cancelConnect()
		appLogger.Error(context.Background(), err, "FATAL: Failed to connect to brokerage")
		log.Fatalf("FATAL: Failed to connect to brokerage: %v", err)
	}
	cancelConnect()
	defer broker.Disconnect()
	appLogger.Info(context.Background(), "Broker client connected")

	// 6. Initialize Signal Engine
	engine, err := strategy.New(strategy.Config{
		VolumeSpikeMultiplier: cfg.VolumeSpikeMultiplier,
		PriceChangeThreshold:  cfg.PriceChangeThreshold,
		MinStockPrice:         cfg.MinStockPrice,
		MaxStockPrice:         cfg.MaxStockPrice,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal engine")
		log.Fatalf("FATAL: Failed to initialize signal engine: %v", err)
	}
	appLogger.Info(context.Background(), "Signal engine initialized")

	// 7. Initialize Order Gate
	gate, err := risk.NewGate(risk.Config{
		MaxPositions: cfg.MaxPositions,
		PositionSize: cfg.PositionSize,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize order gate")
		log.Fatalf("FATAL: Failed to initialize order gate: %v", err)
	}

	// 8. Initialize Dashboard
	dash, err := dashboard.NewServer(cfg.DashboardAddr, journal, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize dashboard server")
		log.Fatalf("FATAL: Failed to initialize dashboard server: %v", err)
	}
	dash.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dash.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(context.Background(), err, "Error shutting down dashboard server")
		}
	}()

	// 9. Initialize Session Controller
	controller, err := app.NewController(cfg, appLogger, marketData, broker, engine, gate, journal, dash)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize session controller")
		log.Fatalf("FATAL: Failed to initialize session controller: %v", err)
	}
	appLogger.Info(context.Background(), "Session controller initialized")

	// 10. Run the Session
	if err := controller.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Session controller exited with error")
		log.Fatalf("FATAL: Session controller exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
