package ports

import (
	"context"

	"equitySpikeBot/internal/domain"
)

// MarketDataProvider defines the interface for the quote/bar collaborator.
// Failures are reported as errors; callers treat them as "no data for this
// symbol this cycle", never as cycle-aborting faults.
type MarketDataProvider interface {
	// MostActiveSymbols returns a bounded, ordered list of the currently
	// most-traded symbols. The list may be empty.
	MostActiveSymbols(ctx context.Context) ([]string, error)

	// IntradayBars returns up to limit one-minute bars for the symbol,
	// newest-first. The returned series is validated against the
	// newest-first ordering contract.
	IntradayBars(ctx context.Context, symbol string, limit int) (domain.BarSeries, error)
}
