package risk

import (
	"context"
	"fmt"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"
)

// Config holds the order gate's position limits.
type Config struct {
	MaxPositions int   // max concurrent open positions
	PositionSize int64 // fixed share quantity per entry, not risk-adjusted
}

// Gate decides whether a fired signal becomes an order. The rules are
// evaluated in order: never pyramid into an existing position, then enforce
// the concurrent position cap, then approve at the fixed size.
type Gate struct {
	cfg    Config
	logger ports.Logger
}

// NewGate creates a new order gate.
func NewGate(cfg Config, logger ports.Logger) (*Gate, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for order gate")
	}
	if cfg.MaxPositions <= 0 {
		return nil, fmt.Errorf("max positions must be positive")
	}
	if cfg.PositionSize <= 0 {
		return nil, fmt.Errorf("position size must be positive")
	}
	return &Gate{cfg: cfg, logger: logger}, nil
}

// PositionSize returns the fixed share quantity for approved entries.
func (g *Gate) PositionSize() int64 {
	return g.cfg.PositionSize
}

// Approve combines a fired signal with a fresh position snapshot. The
// positions slice must come straight from the broker; stale data risks
// double-entry or exceeding the cap.
func (g *Gate) Approve(ctx context.Context, sig domain.Signal, positions []domain.Position) domain.Decision {
	for _, p := range positions {
		if p.Symbol == sig.Symbol {
			g.logger.Warn(ctx, "Signal skipped: position already open", map[string]interface{}{
				"symbol":   sig.Symbol,
				"quantity": p.Quantity,
			})
			return domain.SkipExisting
		}
	}

	if len(positions) >= g.cfg.MaxPositions {
		g.logger.Warn(ctx, "Signal skipped: position cap reached", map[string]interface{}{
			"symbol":       sig.Symbol,
			"open":         len(positions),
			"maxPositions": g.cfg.MaxPositions,
		})
		return domain.SkipCap
	}

	return domain.SubmitBuy
}
