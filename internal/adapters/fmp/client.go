package fmp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"equitySpikeBot/internal/domain"
	"equitySpikeBot/internal/ports"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 10 * time.Second
	// FMP intraday timestamps carry no zone and are quoted in US/Eastern.
	dateLayout = "2006-01-02 15:04:05"
)

// Client implements ports.MarketDataProvider against a Financial Modeling
// Prep style HTTP API.
type Client struct {
	rest           *resty.Client
	logger         ports.Logger
	apiKey         string
	candidateLimit int
	loc            *time.Location
}

// Config holds configuration specific to the FMP client adapter.
type Config struct {
	BaseURL        string
	APIKey         string
	CandidateLimit int // most-active symbols returned per call
	Location       *time.Location
	Logger         ports.Logger
}

// New creates a new FMP client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for FMP client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for FMP client")
	}
	if cfg.CandidateLimit <= 0 {
		return nil, fmt.Errorf("candidate limit must be positive")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(defaultTimeout)

	return &Client{
		rest:           rest,
		logger:         cfg.Logger,
		apiKey:         cfg.APIKey,
		candidateLimit: cfg.CandidateLimit,
		loc:            loc,
	}, nil
}

type activeStock struct {
	Symbol string `json:"symbol"`
}

// MostActiveSymbols returns up to the configured number of highest-volume
// symbols, most active first.
func (c *Client) MostActiveSymbols(ctx context.Context) ([]string, error) {
	var payload []activeStock
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		SetResult(&payload).
		Get("/most-actives")
	if err != nil {
		return nil, fmt.Errorf("most-actives request failed: %w", err)
	}
	if err := c.statusError(resp); err != nil {
		return nil, fmt.Errorf("most-actives: %w", err)
	}

	n := len(payload)
	if n > c.candidateLimit {
		n = c.candidateLimit
	}
	symbols := make([]string, 0, n)
	for _, s := range payload[:n] {
		if s.Symbol == "" {
			return nil, fmt.Errorf("most-actives entry without symbol: %w", ports.ErrMalformedPayload)
		}
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

type intradayBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IntradayBars fetches one-minute bars for the symbol, newest-first, and
// truncates to limit. The provider's ordering is verified, not repaired.
func (c *Client) IntradayBars(ctx context.Context, symbol string, limit int) (domain.BarSeries, error) {
	var payload []intradayBar
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		SetResult(&payload).
		Get("/historical-chart/1min/" + symbol)
	if err != nil {
		return domain.BarSeries{}, fmt.Errorf("intraday bars request failed for %s: %w", symbol, err)
	}
	if err := c.statusError(resp); err != nil {
		return domain.BarSeries{}, fmt.Errorf("intraday bars for %s: %w", symbol, err)
	}

	if len(payload) > limit {
		payload = payload[:limit]
	}
	bars := make([]domain.Bar, 0, len(payload))
	for _, raw := range payload {
		ts, err := time.ParseInLocation(dateLayout, raw.Date, c.loc)
		if err != nil {
			return domain.BarSeries{}, fmt.Errorf("bad bar timestamp %q for %s: %w", raw.Date, symbol, ports.ErrMalformedPayload)
		}
		bars = append(bars, domain.Bar{
			Time:   ts,
			Open:   raw.Open,
			High:   raw.High,
			Low:    raw.Low,
			Close:  raw.Close,
			Volume: int64(raw.Volume),
		})
	}

	series, err := domain.NewBarSeries(symbol, bars)
	if err != nil {
		return domain.BarSeries{}, fmt.Errorf("intraday bars for %s: %w", symbol, err)
	}
	return series, nil
}

// statusError maps HTTP failure codes onto the standard port errors.
func (c *Client) statusError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusForbidden, http.StatusUnauthorized:
		return ports.ErrForbidden
	case http.StatusNotFound:
		return ports.ErrNotFound
	case http.StatusTooManyRequests:
		return ports.ErrRateLimited
	default:
		return fmt.Errorf("%w: HTTP %d", ports.ErrProviderUnavailable, resp.StatusCode())
	}
}
