package ports

import (
	"context"

	"equitySpikeBot/internal/domain"
)

// OrderJournal defines the interface for recording submitted orders.
// The journal is reporting-only; no trading decision reads it back.
type OrderJournal interface {
	// RecordOrder saves a submitted order and returns its assigned ID.
	RecordOrder(ctx context.Context, rec *domain.OrderRecord) (int64, error)
	// FindRecent retrieves the most recent orders, newest first, up to limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.OrderRecord, error)
	// CountToday counts orders submitted since local midnight.
	CountToday(ctx context.Context) (int, error)
}
