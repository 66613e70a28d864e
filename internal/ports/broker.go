package ports

import (
	"context"

	"equitySpikeBot/internal/domain"
)

// Broker defines the interface for the brokerage collaborator.
// Connect must succeed before any trading proceeds; every other failure is
// non-fatal during the session.
type Broker interface {
	// Connect verifies the brokerage session. A failure here is fatal at
	// startup.
	Connect(ctx context.Context) error

	// Disconnect releases the brokerage session. Safe to call more than once.
	Disconnect()

	// AccountBalance returns the account's net liquidation value.
	// Implementations return 0 together with the error on failure.
	AccountBalance(ctx context.Context) (float64, error)

	// OpenPositions returns the live snapshot of open positions. No caching:
	// every order-gate decision fetches a fresh snapshot.
	OpenPositions(ctx context.Context) ([]domain.Position, error)

	// PlaceMarketOrder submits a market order for the given share quantity.
	// Quantity is always positive; direction is carried by side.
	PlaceMarketOrder(ctx context.Context, symbol string, quantity int64, side domain.OrderSide) error
}
