package ports

import (
	"context"

	"equitySpikeBot/internal/domain"
)

// SignalEngine evaluates a bar series into a verdict. Insufficient data is a
// normal no-fire verdict; an error is reserved for genuinely broken input
// such as an out-of-order series.
type SignalEngine interface {
	// RequiredBars returns the minimum series length needed for a verdict.
	RequiredBars() int

	// Evaluate scores the series. It is a pure function of its inputs.
	Evaluate(ctx context.Context, series domain.BarSeries) (domain.Signal, error)
}
