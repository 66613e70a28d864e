package alpacabroker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

// Broker implements the ports.Broker interface using the Alpaca trading API.
type Broker struct {
	client    *alpaca.Client
	logger    ports.Logger
	clientID  int
	connected bool
}

// Config holds configuration specific to the Alpaca broker adapter.
type Config struct {
	Host      string
	Port      int
	ClientID  int // tag stamped into every client order ID
	APIKey    string
	APISecret string
	Logger    ports.Logger
}

// New creates a new Alpaca broker adapter. The session is not verified
// until Connect is called.
func New(cfg Config) (*Broker, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Alpaca broker")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("broker host is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("broker API key and secret are required")
	}

	client := alpaca.NewClient(alpaca.ClientOpts{
		BaseURL:   baseURL(cfg.Host, cfg.Port),
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})

	return &Broker{
		client:   client,
		logger:   cfg.Logger,
		clientID: cfg.ClientID,
	}, nil
}

// baseURL builds the REST endpoint from the configured host/port pair.
func baseURL(host string, port int) string {
	if port == 0 || port == 443 {
		return "https://" + host
	}
	return fmt.Sprintf("https://%s:%d", host, port)
}

// Connect probes the account endpoint to verify credentials and reachability.
func (b *Broker) Connect(ctx context.Context) error {
	acct, err := b.client.GetAccount()
	if err != nil {
		b.connected = false
		return fmt.Errorf("%w: %v", ports.ErrConnectionFailed, err)
	}
	b.connected = true
	b.logger.Info(ctx, "Connected to brokerage", map[string]interface{}{
		"account": acct.AccountNumber,
		"status":  acct.Status,
	})
	return nil
}

// Disconnect marks the session closed. The underlying transport is
// stateless HTTP, so there is nothing to tear down.
func (b *Broker) Disconnect() {
	b.connected = false
}

// AccountBalance returns the account's equity (net liquidation value).
// Returns 0 with the error on failure; callers treat that as non-fatal.
func (b *Broker) AccountBalance(ctx context.Context) (float64, error) {
	if !b.connected {
		return 0, ports.ErrConnectionFailed
	}
	acct, err := b.client.GetAccount()
	if err != nil {
		return 0, b.mapError(ctx, err, "get account")
	}
	return acct.Equity.InexactFloat64(), nil
}

// OpenPositions returns the live snapshot of open equity positions.
// Returns an empty slice with the error on failure.
func (b *Broker) OpenPositions(ctx context.Context) ([]domain.Position, error) {
	if !b.connected {
		return nil, ports.ErrConnectionFailed
	}
	raw, err := b.client.GetPositions()
	if err != nil {
		return nil, b.mapError(ctx, err, "get positions")
	}

	positions := make([]domain.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, mapPosition(p))
	}
	return positions, nil
}

// mapPosition converts an Alpaca position into the domain snapshot form.
// Quantity is signed: negative for short positions.
func mapPosition(p alpaca.Position) domain.Position {
	qty := p.Qty.IntPart()
	if strings.EqualFold(string(p.Side), "short") && qty > 0 {
		qty = -qty
	}
	pos := domain.Position{
		Symbol:   p.Symbol,
		Quantity: qty,
		AvgCost:  p.AvgEntryPrice.InexactFloat64(),
	}
	if p.UnrealizedPL != nil {
		pos.UnrealizedPnL = p.UnrealizedPL.InexactFloat64()
	}
	return pos
}

// PlaceMarketOrder submits a DAY market order. The configured client ID is
// stamped into the client order ID so fills can be traced back to this bot.
func (b *Broker) PlaceMarketOrder(ctx context.Context, symbol string, quantity int64, side domain.OrderSide) error {
	if !b.connected {
		return ports.ErrConnectionFailed
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ports.ErrInvalidRequest, quantity)
	}

	orderSide := alpaca.Buy
	if side == domain.Sell {
		orderSide = alpaca.Sell
	}

	qty := decimal.NewFromInt(quantity)
	order, err := b.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          orderSide,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: b.nextClientOrderID(symbol),
	})
	if err != nil {
		return b.mapError(ctx, err, "place order")
	}

	b.logger.Info(ctx, "Market order submitted", map[string]interface{}{
		"orderID":  order.ID,
		"symbol":   symbol,
		"side":     string(side),
		"quantity": quantity,
	})
	return nil
}

func (b *Broker) nextClientOrderID(symbol string) string {
	return fmt.Sprintf("spike-%d-%s-%d", b.clientID, symbol, time.Now().UnixNano())
}

// mapError translates Alpaca API errors into standardized ports errors.
func (b *Broker) mapError(ctx context.Context, err error, operation string) error {
	fields := map[string]interface{}{"operation": operation}

	var apiErr *alpaca.APIError
	mapped := ports.ErrUnknown
	if errors.As(err, &apiErr) {
		fields["statusCode"] = apiErr.StatusCode
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			mapped = ports.ErrAuthenticationFailed
		case http.StatusUnprocessableEntity:
			mapped = ports.ErrOrderRejected
		case http.StatusTooManyRequests:
			mapped = ports.ErrRateLimited
		default:
			mapped = ports.ErrConnectionFailed
		}
	}

	b.logger.Error(ctx, err, "Brokerage call failed", fields)
	return fmt.Errorf("%w: %v", mapped, err)
}
