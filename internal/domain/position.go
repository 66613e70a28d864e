package domain

import "time"

// Position is a brokerage-reported open holding. The bot only reads
// snapshots; all mutation happens indirectly through submitted orders.
type Position struct {
	Symbol        string
	Quantity      int64 // signed: positive = long, negative = short
	AvgCost       float64
	UnrealizedPnL float64
}

// IsLong reports whether the position is a long holding.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// OrderRecord is a journal row for a submitted market order, kept for
// reporting only. Trading decisions never read the journal.
type OrderRecord struct {
	ID             int64
	Symbol         string
	Side           OrderSide
	Quantity       int64
	Reason         OrderReason
	VolumeRatio    float64 // zero for liquidation orders
	PriceChangePct float64 // zero for liquidation orders
	SubmittedAt    time.Time
}

// Snapshot is the immutable state view published to the dashboard on each
// controller iteration. The positions slice is owned by the snapshot; the
// controller never mutates it after publishing.
type Snapshot struct {
	State     SessionState `json:"state"`
	Balance   float64      `json:"balance"`
	Positions []Position   `json:"positions"`
	Timestamp time.Time    `json:"timestamp"`
}
