package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// OrderReason indicates why an order was submitted.
type OrderReason string

const (
	ReasonSignal      OrderReason = "SIGNAL"      // entry triggered by a fired signal
	ReasonLiquidation OrderReason = "LIQUIDATION" // end-of-day or shutdown flatten
)

// SessionState is the Session Controller's current mode. Exactly one
// instance exists, owned by the controller; it changes only on wall-clock
// checks. StateStopped is terminal.
type SessionState string

const (
	StateClosed      SessionState = "CLOSED"
	StateScanning    SessionState = "SCANNING"
	StateLiquidating SessionState = "LIQUIDATING"
	StateStopped     SessionState = "STOPPED"
)
