package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equitySpikeBot/config"
	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/metrics"
	"equitySpikeBot/internal/ports"
	"equitySpikeBot/internal/risk"
)

const liquidationTimeout = 30 * time.Second

// Clock supplies wall-clock time. The session controller derives its state
// from the clock, so tests inject a fake to drive transitions.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SnapshotPublisher receives state snapshots after each scan cycle and on
// every session transition.
type SnapshotPublisher interface {
	Publish(domain.Snapshot)
}

// Controller runs the trading session. It owns the session state machine,
// drives scan cycles against the market data provider, and hands fired
// signals to the order gate.
type Controller struct {
	cfg       *config.Config
	logger    ports.Logger
	market    ports.MarketDataProvider
	broker    ports.Broker
	engine    ports.SignalEngine
	gate      *risk.Gate
	journal   ports.OrderJournal
	publisher SnapshotPublisher

	clock Clock
	sleep func(ctx context.Context, d time.Duration) error

	state domain.SessionState
}

// NewController creates the session controller.
func NewController(
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketDataProvider,
	broker ports.Broker,
	engine ports.SignalEngine,
	gate *risk.Gate,
	journal ports.OrderJournal,
	publisher SnapshotPublisher,
) (*Controller, error) {

	if cfg == nil || logger == nil || market == nil || broker == nil || engine == nil || gate == nil || journal == nil || publisher == nil {
		return nil, fmt.Errorf("missing required dependencies for Controller")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("configuration Location must be set")
	}

	return &Controller{
		cfg:       cfg,
		logger:    logger,
		market:    market,
		broker:    broker,
		engine:    engine,
		gate:      gate,
		journal:   journal,
		publisher: publisher,
		clock:     systemClock{},
		sleep:     sleepCtx,
		state:     domain.StateClosed,
	}, nil
}

// Run executes the session until the exit time passes or a shutdown signal
// arrives. A shutdown while positions may be open always flows through
// liquidation before the controller stops.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info(ctx, "Starting session controller", map[string]interface{}{
		"marketOpen":  c.cfg.MarketOpen.String(),
		"marketClose": c.cfg.MarketClose.String(),
		"exitTime":    c.cfg.ExitTime.String(),
		"timezone":    c.cfg.Location.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ordersToday, err := c.journal.CountToday(ctx)
	if err != nil {
		c.logger.Warn(ctx, "Failed to count today's journaled orders", map[string]interface{}{"error": err.Error()})
	} else {
		c.logger.Info(ctx, "Journal state synchronized", map[string]interface{}{"ordersToday": ordersToday})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			c.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	c.publishSnapshot(ctx)

	for {
		if ctx.Err() != nil {
			return c.shutdown()
		}

		now := c.clock.Now().In(c.cfg.Location)
		minutes := config.TimeOfDay(now.Hour()*60 + now.Minute())

		switch {
		case minutes < c.cfg.MarketOpen || minutes >= c.cfg.MarketClose:
			c.transition(ctx, domain.StateClosed)
			if err := c.sleep(ctx, c.cfg.IdleInterval); err != nil {
				return c.shutdown()
			}

		case minutes >= c.cfg.ExitTime:
			// End of day inside market hours: flatten and stop.
			c.transition(ctx, domain.StateLiquidating)
			c.liquidate(ctx)
			c.transition(ctx, domain.StateStopped)
			c.publishSnapshot(context.Background())
			c.logger.Info(ctx, "Session complete")
			return nil

		default:
			c.transition(ctx, domain.StateScanning)
			c.runScanCycle(ctx)
			if err := c.sleep(ctx, c.cfg.ScanInterval); err != nil {
				return c.shutdown()
			}
		}
	}
}

// shutdown handles an external cancellation: liquidate on a fresh context
// (the run context is already dead), then stop.
func (c *Controller) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), liquidationTimeout)
	defer cancel()

	c.logger.Info(ctx, "Shutting down, liquidating open positions")
	c.transition(ctx, domain.StateLiquidating)
	c.liquidate(ctx)
	c.transition(ctx, domain.StateStopped)
	c.publishSnapshot(ctx)
	c.logger.Info(ctx, "Session controller stopped")
	return nil
}

// transition moves the state machine and records the change. Repeated calls
// with the current state are no-ops.
func (c *Controller) transition(ctx context.Context, next domain.SessionState) {
	if c.state == next {
		return
	}
	c.logger.Info(ctx, "Session state changed", map[string]interface{}{
		"from": string(c.state),
		"to":   string(next),
	})
	c.state = next
	metrics.SessionState.Set(stateValue(next))
}

func stateValue(s domain.SessionState) float64 {
	switch s {
	case domain.StateClosed:
		return 0
	case domain.StateScanning:
		return 1
	case domain.StateLiquidating:
		return 2
	case domain.StateStopped:
		return 3
	}
	return -1
}

// runScanCycle fetches the most-active list and evaluates each candidate.
// A panic in any per-symbol step is contained here so a single bad payload
// cannot take down the session.
func (c *Controller) runScanCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(ctx, fmt.Errorf("panic: %v", r), "Scan cycle panicked, continuing session")
		}
	}()

	metrics.ScanCyclesTotal.Inc()

	symbols, err := c.market.MostActiveSymbols(ctx)
	if err != nil {
		metrics.DataFetchErrorsTotal.Inc()
		c.logger.Error(ctx, err, "Failed to fetch most-active symbols, skipping cycle")
		return
	}
	c.logger.Debug(ctx, "Scan cycle started", map[string]interface{}{"candidates": len(symbols)})

	for i, symbol := range symbols {
		// A cancellation mid-cycle finishes the current symbol and stops
		// before starting the next one.
		if ctx.Err() != nil {
			return
		}
		if i > 0 && c.cfg.SymbolPacing > 0 {
			if err := c.sleep(ctx, c.cfg.SymbolPacing); err != nil {
				return
			}
		}
		c.evaluateSymbol(ctx, symbol)
	}

	c.publishSnapshot(ctx)
}

// evaluateSymbol runs one candidate through the signal engine and, if the
// signal fires, through the order gate. Errors are isolated per symbol.
func (c *Controller) evaluateSymbol(ctx context.Context, symbol string) {
	series, err := c.market.IntradayBars(ctx, symbol, c.cfg.LookbackBars)
	if err != nil {
		metrics.DataFetchErrorsTotal.Inc()
		c.logger.Warn(ctx, "Failed to fetch intraday bars", map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		})
		return
	}

	metrics.SymbolsEvaluatedTotal.Inc()

	sig, err := c.engine.Evaluate(ctx, series)
	if err != nil {
		c.logger.Warn(ctx, "Signal evaluation failed", map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		})
		return
	}
	if !sig.Fired {
		return
	}
	metrics.SignalsFiredTotal.WithLabelValues(symbol).Inc()

	// The gate needs a position snapshot taken after the signal fired;
	// anything cached could have been invalidated by an earlier entry in
	// this same cycle.
	positions, err := c.broker.OpenPositions(ctx)
	if err != nil {
		metrics.OrderErrorsTotal.Inc()
		c.logger.Error(ctx, err, "Failed to fetch positions for order gate", map[string]interface{}{"symbol": symbol})
		return
	}

	decision := c.gate.Approve(ctx, sig, positions)
	if decision != domain.SubmitBuy {
		metrics.SignalsSkippedTotal.WithLabelValues(string(decision)).Inc()
		return
	}

	c.submitEntry(ctx, sig)
}

func (c *Controller) submitEntry(ctx context.Context, sig domain.Signal) {
	qty := c.gate.PositionSize()
	if err := c.broker.PlaceMarketOrder(ctx, sig.Symbol, qty, domain.Buy); err != nil {
		metrics.OrderErrorsTotal.Inc()
		c.logger.Error(ctx, err, "Entry order failed", map[string]interface{}{
			"symbol":   sig.Symbol,
			"quantity": qty,
		})
		return
	}

	c.logger.Info(ctx, "Entry order submitted", map[string]interface{}{
		"symbol":         sig.Symbol,
		"quantity":       qty,
		"volumeRatio":    sig.VolumeRatio,
		"priceChangePct": sig.PriceChangePct,
		"referencePrice": sig.ReferencePrice,
	})
	metrics.OrdersSubmittedTotal.WithLabelValues(sig.Symbol, string(domain.Buy), string(domain.ReasonSignal)).Inc()

	rec := &domain.OrderRecord{
		Symbol:         sig.Symbol,
		Side:           domain.Buy,
		Quantity:       qty,
		Reason:         domain.ReasonSignal,
		VolumeRatio:    sig.VolumeRatio,
		PriceChangePct: sig.PriceChangePct,
		SubmittedAt:    c.clock.Now().UTC(),
	}
	if _, err := c.journal.RecordOrder(ctx, rec); err != nil {
		// The order is already live; a journal failure must not block trading.
		c.logger.Error(ctx, err, "Failed to journal entry order", map[string]interface{}{"symbol": sig.Symbol})
	}
}

// liquidate flattens every open position with offsetting market orders.
// Per-position failures are logged and the remaining positions still close.
func (c *Controller) liquidate(ctx context.Context) {
	positions, err := c.broker.OpenPositions(ctx)
	if err != nil {
		c.logger.Error(ctx, err, "Failed to fetch positions for liquidation")
		return
	}
	if len(positions) == 0 {
		c.logger.Info(ctx, "No open positions to liquidate")
		return
	}
	c.logger.Info(ctx, "Liquidating open positions", map[string]interface{}{"count": len(positions)})

	for _, pos := range positions {
		if pos.Quantity == 0 {
			continue
		}
		side := domain.Sell
		qty := pos.Quantity
		if !pos.IsLong() {
			side = domain.Buy
			qty = -qty
		}

		if err := c.broker.PlaceMarketOrder(ctx, pos.Symbol, qty, side); err != nil {
			metrics.OrderErrorsTotal.Inc()
			c.logger.Error(ctx, err, "Liquidation order failed", map[string]interface{}{
				"symbol":   pos.Symbol,
				"quantity": qty,
				"side":     string(side),
			})
			continue
		}
		c.logger.Info(ctx, "Liquidation order submitted", map[string]interface{}{
			"symbol":   pos.Symbol,
			"quantity": qty,
			"side":     string(side),
		})
		metrics.OrdersSubmittedTotal.WithLabelValues(pos.Symbol, string(side), string(domain.ReasonLiquidation)).Inc()

		rec := &domain.OrderRecord{
			Symbol:      pos.Symbol,
			Side:        side,
			Quantity:    qty,
			Reason:      domain.ReasonLiquidation,
			SubmittedAt: c.clock.Now().UTC(),
		}
		if _, err := c.journal.RecordOrder(ctx, rec); err != nil {
			c.logger.Error(ctx, err, "Failed to journal liquidation order", map[string]interface{}{"symbol": pos.Symbol})
		}
	}
}

// publishSnapshot pushes current account state to the dashboard and updates
// the gauges. Failures degrade to a state-only snapshot rather than erroring.
func (c *Controller) publishSnapshot(ctx context.Context) {
	snap := domain.Snapshot{
		State:     c.state,
		Timestamp: c.clock.Now().UTC(),
	}

	balance, err := c.broker.AccountBalance(ctx)
	if err != nil {
		c.logger.Warn(ctx, "Failed to fetch account balance for snapshot", map[string]interface{}{"error": err.Error()})
	} else {
		snap.Balance = balance
		metrics.AccountBalance.Set(balance)
	}

	positions, err := c.broker.OpenPositions(ctx)
	if err != nil {
		c.logger.Warn(ctx, "Failed to fetch positions for snapshot", map[string]interface{}{"error": err.Error()})
	} else {
		snap.Positions = positions
		metrics.OpenPositions.Set(float64(len(positions)))
	}

	c.publisher.Publish(snap)
}

// sleepCtx waits for the duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
