package strategy

import (
	"context"
	"fmt"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"
)

const (
	// windowBars is the trailing window the latest bar is compared against.
	windowBars = 20
)

// Config holds parameters for the volume-spike signal engine.
type Config struct {
	VolumeSpikeMultiplier float64 // e.g., 4.0: latest volume must exceed 4x the trailing average
	PriceChangeThreshold  float64 // e.g., 0.007: intra-bar gain must exceed 0.7%
	MinStockPrice         float64 // e.g., 5.0
	MaxStockPrice         float64 // e.g., 500.0
}

// Engine implements the volume-spike detection logic. It fires only when the
// volume condition, the price-change condition and the price-range condition
// hold simultaneously; there is no partial-credit scoring.
type Engine struct {
	cfg    Config
	logger ports.Logger
}

// New creates a new Engine instance.
func New(cfg Config, logger ports.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for signal engine")
	}
	if cfg.VolumeSpikeMultiplier <= 0 {
		return nil, fmt.Errorf("volume spike multiplier must be positive")
	}
	if cfg.PriceChangeThreshold <= 0 {
		return nil, fmt.Errorf("price change threshold must be positive")
	}
	if cfg.MinStockPrice <= 0 || cfg.MaxStockPrice <= cfg.MinStockPrice {
		return nil, fmt.Errorf("price range must satisfy 0 < min < max")
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// RequiredBars returns the minimum series length needed for a verdict:
// the latest bar plus the trailing average window.
func (e *Engine) RequiredBars() int {
	return windowBars + 1
}

// Evaluate scores a newest-first bar series. A series shorter than
// RequiredBars or with a zero trailing average volume yields a no-fire
// verdict; an out-of-order series yields ErrOutOfOrder. Extra bars beyond
// the required window are ignored.
func (e *Engine) Evaluate(ctx context.Context, series domain.BarSeries) (domain.Signal, error) {
	if err := series.Validate(); err != nil {
		return domain.Signal{}, fmt.Errorf("cannot score %s: %w", series.Symbol, err)
	}

	sig := domain.Signal{Symbol: series.Symbol}
	if series.Len() < e.RequiredBars() {
		// Data-sufficiency guard, not a fault.
		return sig, nil
	}

	latest := series.Bars[0]
	window := series.Bars[1 : windowBars+1]

	var total int64
	for _, b := range window {
		total += b.Volume
	}
	avgVolume := float64(total) / float64(len(window))
	if avgVolume == 0 {
		// Cannot assess a spike against a zero baseline.
		return sig, nil
	}

	sig.VolumeRatio = float64(latest.Volume) / avgVolume
	sig.PriceChangePct = (latest.Close - latest.Open) / latest.Open
	sig.ReferencePrice = latest.Close

	volumeCond := sig.VolumeRatio > e.cfg.VolumeSpikeMultiplier
	priceCond := sig.PriceChangePct > e.cfg.PriceChangeThreshold
	rangeCond := latest.Close > e.cfg.MinStockPrice && latest.Close < e.cfg.MaxStockPrice

	sig.Fired = volumeCond && priceCond && rangeCond
	if sig.Fired {
		e.logger.Info(ctx, "Signal fired", map[string]interface{}{
			"symbol":      sig.Symbol,
			"volumeRatio": sig.VolumeRatio,
			"priceChange": sig.PriceChangePct,
			"price":       sig.ReferencePrice,
		})
	}

	return sig, nil
}
